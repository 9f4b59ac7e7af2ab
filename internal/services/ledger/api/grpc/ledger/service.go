package ledger

import (
	"context"
	"strings"

	apperrors "github.com/louisbranch/spinvault/internal/platform/errors"
	"github.com/louisbranch/spinvault/internal/platform/grpc/pagination"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/event"
	core "github.com/louisbranch/spinvault/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/reward"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/roulette"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/trade"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	provenancePage = pagination.Config{Default: 50, Max: 200}
	gamesPage      = pagination.Config{Default: 20, Max: 100}
)

// defaultWatchBuffer is the live event buffer per WatchEvents stream.
const defaultWatchBuffer = 256

// Deps are the ledger components the service exposes.
type Deps struct {
	Core    *core.Ledger
	Rewards *reward.Ledger
	Games   *roulette.Engine
	Trades  *trade.Engine
	// Operators may call Mint directly.
	Operators []core.Address
	// WatchBuffer sizes each WatchEvents subscription. Zero means 256.
	WatchBuffer int
}

// Service exposes the ledger over gRPC.
type Service struct {
	core      *core.Ledger
	rewards   *reward.Ledger
	games     *roulette.Engine
	trades    *trade.Engine
	operators map[core.Address]struct{}
	watchBuf  int
}

var _ LedgerServer = (*Service)(nil)

// NewService creates a ledger service.
func NewService(deps Deps) *Service {
	ops := make(map[core.Address]struct{}, len(deps.Operators))
	for _, op := range deps.Operators {
		ops[op] = struct{}{}
	}
	buffer := deps.WatchBuffer
	if buffer <= 0 {
		buffer = defaultWatchBuffer
	}
	return &Service{
		core:      deps.Core,
		rewards:   deps.Rewards,
		games:     deps.Games,
		trades:    deps.Trades,
		operators: ops,
		watchBuf:  buffer,
	}
}

func (s *Service) ready() error {
	if s == nil || s.core == nil || s.rewards == nil || s.games == nil || s.trades == nil {
		return status.Error(codes.Internal, "ledger service is not configured")
	}
	return nil
}

// Play places one bet for the caller and resolves it immediately.
func (s *Service) Play(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	player, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	stake, err := decimalField(in, "stake")
	if err != nil {
		return nil, err
	}
	number, _, err := intField(in, "number")
	if err != nil {
		return nil, err
	}
	// A wrong stake is reported before a bad bet kind.
	if err := s.games.CheckStake(stake); err != nil {
		return nil, handleError(ctx, err)
	}
	kind, err := roulette.ParseBetKind(rawField(in, "bet_kind"))
	if err != nil {
		return nil, handleError(ctx, err)
	}

	result, err := s.games.PlayAndResolve(ctx, player, kind, int(number), stake)
	if err != nil {
		return nil, handleError(ctx, err)
	}
	var minted any
	if result.Reward != nil {
		minted = collectibleFields(*result.Reward)
	}
	return toStruct(map[string]any{
		"game":   gameFields(result.Game),
		"reward": minted,
	})
}

// Mint issues a collectible. Only configured operators may call it.
func (s *Service) Mint(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	minter, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	to, err := addressField(ctx, in, "to", "")
	if err != nil {
		return nil, err
	}
	tier, err := reward.ParseTier(stringField(in, "tier"))
	if err != nil {
		return nil, handleError(ctx, err)
	}
	if _, ok := s.operators[minter]; !ok {
		return nil, handleError(ctx, apperrors.New(apperrors.CodeNotMinter, "caller is not an operator"))
	}

	item, err := s.rewards.ExecuteMint(ctx, minter, to, stringField(in, "name"), tier, stringField(in, "content_hash"))
	if err != nil {
		return nil, handleError(ctx, err)
	}
	return toStruct(map[string]any{"collectible": collectibleFields(item)})
}

// Transfer moves one of the caller's collectibles to another address.
func (s *Service) Transfer(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	from, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	item, err := idField(in, "item_id")
	if err != nil {
		return nil, err
	}
	to, err := addressField(ctx, in, "to", "")
	if err != nil {
		return nil, err
	}

	moved, err := s.rewards.ExecuteTransfer(ctx, from, reward.ItemID(item), to)
	if err != nil {
		return nil, handleError(ctx, err)
	}
	return toStruct(map[string]any{"collectible": collectibleFields(moved)})
}

// ProposeSwap offers one of the caller's items for one of the target's.
func (s *Service) ProposeSwap(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	proposer, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	give, err := idField(in, "proposer_item")
	if err != nil {
		return nil, err
	}
	target, err := addressField(ctx, in, "target", "")
	if err != nil {
		return nil, err
	}
	want, err := idField(in, "target_item")
	if err != nil {
		return nil, err
	}

	swap, err := s.trades.Propose(ctx, proposer, reward.ItemID(give), target, reward.ItemID(want))
	if err != nil {
		return nil, handleError(ctx, err)
	}
	return toStruct(map[string]any{"swap": swapFields(swap)})
}

// AcceptSwap executes a pending swap addressed to the caller.
func (s *Service) AcceptSwap(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.resolveSwap(ctx, in, s.trades.Accept)
}

// CancelSwap withdraws a pending swap the caller proposed.
func (s *Service) CancelSwap(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.resolveSwap(ctx, in, s.trades.Cancel)
}

// RejectSwap declines a pending swap addressed to the caller.
func (s *Service) RejectSwap(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.resolveSwap(ctx, in, s.trades.Reject)
}

type swapAction func(context.Context, core.Address, trade.SwapID) (trade.Swap, error)

func (s *Service) resolveSwap(ctx context.Context, in *structpb.Struct, action swapAction) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	caller, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	id, err := idField(in, "swap_id")
	if err != nil {
		return nil, err
	}

	swap, err := action(ctx, caller, trade.SwapID(id))
	if err != nil {
		return nil, handleError(ctx, err)
	}
	return toStruct(map[string]any{"swap": swapFields(swap)})
}

// GetCollectible returns one collectible.
func (s *Service) GetCollectible(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	item, err := idField(in, "item_id")
	if err != nil {
		return nil, err
	}
	c, err := s.rewards.Collectible(reward.ItemID(item))
	if err != nil {
		return nil, handleError(ctx, err)
	}
	return toStruct(map[string]any{"collectible": collectibleFields(c)})
}

// GetProvenance returns one page of a collectible's prior owners.
func (s *Service) GetProvenance(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	item, err := idField(in, "item_id")
	if err != nil {
		return nil, err
	}
	offset, limit, err := windowField(in)
	if err != nil {
		return nil, err
	}
	window := pagination.Normalize(offset, limit, provenancePage)
	owners, total, err := s.rewards.Provenance(reward.ItemID(item), window)
	if err != nil {
		return nil, handleError(ctx, err)
	}
	return toStruct(map[string]any{
		"item_id":     item,
		"owners":      addresses(owners),
		"total":       total,
		"next_offset": nextOffset(window, total),
	})
}

// ListInventory returns the collectibles held by an address, the caller by default.
func (s *Service) ListInventory(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	owner, err := s.subject(ctx, in, "owner")
	if err != nil {
		return nil, err
	}
	items := s.rewards.Inventory(owner)
	list := make([]any, 0, len(items))
	for _, c := range items {
		list = append(list, collectibleFields(c))
	}
	return toStruct(map[string]any{
		"owner":    owner.String(),
		"items":    list,
		"count":    len(items),
		"capacity": reward.MaxCapacity,
	})
}

// GetAccount returns inventory and cooldown state for an address.
func (s *Service) GetAccount(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	addr, err := s.subject(ctx, in, "address")
	if err != nil {
		return nil, err
	}
	acc := s.core.Account(addr)
	return toStruct(map[string]any{
		"address":                addr.String(),
		"inventory_count":        acc.InventoryCount,
		"capacity":               reward.MaxCapacity,
		"can_receive_reward":     s.rewards.CanReceiveReward(addr),
		"last_win_at":            formatTime(acc.LastWinAt),
		"last_trade_action_at":   formatTime(acc.LastTradeActionAt),
		"win_cooldown_seconds":   core.Seconds(s.games.CooldownRemaining(addr)),
		"trade_cooldown_seconds": core.Seconds(s.trades.CooldownRemaining(addr)),
	})
}

// GetRules returns the configured game and trade parameters.
func (s *Service) GetRules(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return toStruct(map[string]any{
		"ticket_price":           s.games.TicketPrice().String(),
		"win_cooldown_seconds":   core.Seconds(s.games.WinCooldown()),
		"trade_cooldown_seconds": core.Seconds(s.trades.Cooldown()),
		"capacity":               reward.MaxCapacity,
		"house_balance":          s.games.HouseBalance().String(),
		"total_minted":           s.rewards.TotalMinted(),
	})
}

// GetGame returns one resolved game.
func (s *Service) GetGame(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	id, err := idField(in, "game_id")
	if err != nil {
		return nil, err
	}
	g, err := s.games.Game(roulette.GameID(id))
	if err != nil {
		return nil, handleError(ctx, err)
	}
	return toStruct(map[string]any{"game": gameFields(g)})
}

// ListPlayerGames returns one page of a player's games, oldest first.
func (s *Service) ListPlayerGames(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	player, err := s.subject(ctx, in, "player")
	if err != nil {
		return nil, err
	}
	offset, limit, err := windowField(in)
	if err != nil {
		return nil, err
	}
	window := pagination.Normalize(offset, limit, gamesPage)
	games := s.games.PlayerGames(player)
	page := pagination.Apply(games, window)
	list := make([]any, 0, len(page))
	for _, g := range page {
		list = append(list, gameFields(g))
	}
	return toStruct(map[string]any{
		"player":      player.String(),
		"games":       list,
		"total":       len(games),
		"next_offset": nextOffset(window, len(games)),
	})
}

// GetSwap returns one swap in any status.
func (s *Service) GetSwap(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	id, err := idField(in, "swap_id")
	if err != nil {
		return nil, err
	}
	swap, err := s.trades.Swap(trade.SwapID(id))
	if err != nil {
		return nil, handleError(ctx, err)
	}
	return toStruct(map[string]any{"swap": swapFields(swap)})
}

// ListSwaps lists an address's swaps. Scope is "pending" (default),
// "proposed", or "received".
func (s *Service) ListSwaps(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	addr, err := s.subject(ctx, in, "address")
	if err != nil {
		return nil, err
	}
	scope := strings.ToLower(stringField(in, "scope"))
	var swaps []trade.Swap
	switch scope {
	case "", "pending":
		scope = "pending"
		swaps = s.trades.PendingFor(addr)
	case "proposed":
		swaps = s.trades.Proposed(addr)
	case "received":
		swaps = s.trades.Received(addr)
	default:
		return nil, status.Error(codes.InvalidArgument, "scope must be pending, proposed, or received")
	}
	return toStruct(map[string]any{
		"address": addr.String(),
		"scope":   scope,
		"swaps":   swapList(swaps),
	})
}

// GetReservation reports whether an item is held by a pending swap.
func (s *Service) GetReservation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	item, err := idField(in, "item_id")
	if err != nil {
		return nil, err
	}
	if _, err := s.rewards.Owner(reward.ItemID(item)); err != nil {
		return nil, handleError(ctx, err)
	}
	id, reserved := s.trades.IsReserved(reward.ItemID(item))
	fields := map[string]any{
		"item_id":  item,
		"reserved": reserved,
		"swap_id":  nil,
	}
	if reserved {
		fields["swap_id"] = uint64(id)
	}
	return toStruct(fields)
}

// WatchEvents streams committed events after "after_seq" and then follows
// new commits until the client goes away.
func (s *Service) WatchEvents(in *structpb.Struct, stream EventStream) error {
	ctx := stream.Context()
	if err := s.ready(); err != nil {
		return err
	}
	after, _, err := intField(in, "after_seq")
	if err != nil {
		return err
	}
	if after < 0 {
		return invalidField("after_seq", "a non-negative integer")
	}

	// Subscribe before the backlog scan so nothing committed in between is lost.
	live, cancel := s.core.Subscribe(s.watchBuf)
	defer cancel()

	last := uint64(after)
	send := func(evt event.Event) error {
		if evt.Seq <= last {
			return nil
		}
		fields, err := eventFields(evt)
		if err != nil {
			return err
		}
		msg, err := toStruct(fields)
		if err != nil {
			return err
		}
		if err := stream.Send(msg); err != nil {
			return err
		}
		last = evt.Seq
		return nil
	}
	catchUp := func() error {
		if err := s.core.EventsSince(ctx, last, send); err != nil {
			return handleError(ctx, err)
		}
		return nil
	}

	if err := catchUp(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-live:
			if !ok {
				return nil
			}
			if evt.Seq > last+1 {
				// The subscriber fell behind; reread from the journal.
				if err := catchUp(); err != nil {
					return err
				}
				continue
			}
			if err := send(evt); err != nil {
				return err
			}
		}
	}
}

// subject reads an address field, defaulting to the caller.
func (s *Service) subject(ctx context.Context, in *structpb.Struct, key string) (core.Address, error) {
	if stringField(in, key) != "" {
		return addressField(ctx, in, key, "")
	}
	return actorFrom(ctx)
}

func nextOffset(w pagination.Window, total int) any {
	if next := w.Offset + w.Limit; next < total {
		return next
	}
	return nil
}

package ledgerctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	ledgerservice "github.com/louisbranch/spinvault/internal/services/ledger/api/grpc/ledger"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrUsage reports a missing or unknown command.
var ErrUsage = errors.New("usage: ledgerctl [flags] <command> [args]; commands: " + strings.Join(commandNames(), ", "))

type session struct {
	client *ledgerservice.Client
	out    io.Writer
	json   bool
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, s *session, args []string) error
}

var commands = []command{
	{"play", "bet one ticket: play -bet RED [-number N] [-stake 0.01]", runPlay},
	{"mint", "issue a collectible: mint -to ADDR -name NAME -tier TIER [-content HASH]", runMint},
	{"transfer", "give an item away: transfer -item ID -to ADDR", runTransfer},
	{"propose", "offer a swap: propose -give ID -to ADDR -want ID", runPropose},
	{"accept", "accept a swap: accept SWAP_ID", swapAction(ledgerservice.MethodAcceptSwap, "Accepted")},
	{"cancel", "cancel your swap: cancel SWAP_ID", swapAction(ledgerservice.MethodCancelSwap, "Cancelled")},
	{"reject", "reject a swap: reject SWAP_ID", swapAction(ledgerservice.MethodRejectSwap, "Rejected")},
	{"inventory", "list items: inventory [ADDR]", runInventory},
	{"account", "show counters and cooldowns: account [ADDR]", runAccount},
	{"swaps", "list swaps: swaps [-scope pending|proposed|received] [ADDR]", runSwaps},
	{"rules", "show ticket price and cooldowns", runRules},
	{"watch", "stream events: watch [-after SEQ]", runWatch},
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for _, c := range commands {
		names = append(names, c.name)
	}
	return names
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// Execute runs one subcommand against client and renders the response to out.
func Execute(ctx context.Context, client *ledgerservice.Client, out io.Writer, jsonOut bool, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	cmd, ok := lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown command %q", args[0])
	}
	return cmd.run(ctx, &session{client: client, out: out, json: jsonOut}, args[1:])
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseID(raw, what string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", what, raw)
	}
	return id, nil
}

func requireFlag(value, name string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("-%s is required", name)
	}
	return nil
}

func runPlay(ctx context.Context, s *session, args []string) error {
	fs := newFlags("play")
	bet := fs.String("bet", "", "bet kind")
	number := fs.Int("number", 0, "pocket for NUMBER bets")
	stake := fs.String("stake", "", "stake; defaults to the ticket price")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlag(*bet, "bet"); err != nil {
		return err
	}
	if *stake == "" {
		rules, err := s.client.Call(ctx, ledgerservice.MethodGetRules, nil)
		if err != nil {
			return err
		}
		*stake = text(rules, "ticket_price")
	}
	res, err := s.client.Play(ctx, *bet, *number, *stake)
	if err != nil {
		return err
	}
	if s.json {
		return writeJSON(s.out, res)
	}
	return renderPlay(s.out, res)
}

func runMint(ctx context.Context, s *session, args []string) error {
	fs := newFlags("mint")
	to := fs.String("to", "", "recipient")
	name := fs.String("name", "", "display name")
	tier := fs.String("tier", "COMMON", "COMMON, RARE, EPIC, or LEGENDARY")
	content := fs.String("content", "", "content hash")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlag(*to, "to"); err != nil {
		return err
	}
	res, err := s.client.Mint(ctx, *to, *name, *tier, *content)
	if err != nil {
		return err
	}
	return s.collectible(res, "Minted")
}

func runTransfer(ctx context.Context, s *session, args []string) error {
	fs := newFlags("transfer")
	item := fs.String("item", "", "item id")
	to := fs.String("to", "", "recipient")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(*item, "-item")
	if err != nil {
		return err
	}
	if err := requireFlag(*to, "to"); err != nil {
		return err
	}
	res, err := s.client.Transfer(ctx, id, *to)
	if err != nil {
		return err
	}
	return s.collectible(res, "Transferred")
}

func runPropose(ctx context.Context, s *session, args []string) error {
	fs := newFlags("propose")
	give := fs.String("give", "", "your item id")
	to := fs.String("to", "", "counterparty")
	want := fs.String("want", "", "their item id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	giveID, err := parseID(*give, "-give")
	if err != nil {
		return err
	}
	wantID, err := parseID(*want, "-want")
	if err != nil {
		return err
	}
	if err := requireFlag(*to, "to"); err != nil {
		return err
	}
	res, err := s.client.ProposeSwap(ctx, giveID, *to, wantID)
	if err != nil {
		return err
	}
	return s.swap(res, "Proposed")
}

func swapAction(method, verb string) func(context.Context, *session, []string) error {
	return func(ctx context.Context, s *session, args []string) error {
		if len(args) != 1 {
			return errors.New("expected exactly one swap id")
		}
		id, err := parseID(args[0], "swap id")
		if err != nil {
			return err
		}
		res, err := s.client.Call(ctx, method, map[string]any{"swap_id": id})
		if err != nil {
			return err
		}
		return s.swap(res, verb)
	}
}

func optionalAddress(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", nil
	case 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("expected at most one address, got %d", len(args))
	}
}

func runInventory(ctx context.Context, s *session, args []string) error {
	owner, err := optionalAddress(args)
	if err != nil {
		return err
	}
	res, err := s.client.ListInventory(ctx, owner)
	if err != nil {
		return err
	}
	if s.json {
		return writeJSON(s.out, res)
	}
	title := fmt.Sprintf("Inventory of %s (%s/%s)", text(res, "owner"), text(res, "count"), text(res, "capacity"))
	return renderCollectibles(s.out, title, list(res, "items"))
}

func runAccount(ctx context.Context, s *session, args []string) error {
	addr, err := optionalAddress(args)
	if err != nil {
		return err
	}
	res, err := s.client.GetAccount(ctx, addr)
	if err != nil {
		return err
	}
	if s.json {
		return writeJSON(s.out, res)
	}
	return renderFields(s.out, "Account "+text(res, "address"), res, []string{
		"inventory_count", "capacity", "can_receive_reward",
		"last_win_at", "win_cooldown_seconds",
		"last_trade_action_at", "trade_cooldown_seconds",
	})
}

func runSwaps(ctx context.Context, s *session, args []string) error {
	fs := newFlags("swaps")
	scope := fs.String("scope", "pending", "pending, proposed, or received")
	if err := fs.Parse(args); err != nil {
		return err
	}
	addr, err := optionalAddress(fs.Args())
	if err != nil {
		return err
	}
	res, err := s.client.ListSwaps(ctx, addr, *scope)
	if err != nil {
		return err
	}
	if s.json {
		return writeJSON(s.out, res)
	}
	return renderSwaps(s.out, fmt.Sprintf("Swaps %s for %s", text(res, "scope"), text(res, "address")), list(res, "swaps"))
}

func runRules(ctx context.Context, s *session, args []string) error {
	if len(args) != 0 {
		return errors.New("rules takes no arguments")
	}
	res, err := s.client.Call(ctx, ledgerservice.MethodGetRules, nil)
	if err != nil {
		return err
	}
	if s.json {
		return writeJSON(s.out, res)
	}
	return renderFields(s.out, "Rules", res, []string{
		"ticket_price", "win_cooldown_seconds", "trade_cooldown_seconds",
		"capacity", "house_balance", "total_minted",
	})
}

func runWatch(ctx context.Context, s *session, args []string) error {
	fs := newFlags("watch")
	after := fs.Uint64("after", 0, "stream events after this sequence number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return s.client.WatchEvents(ctx, *after, func(evt *structpb.Struct) error {
		if s.json {
			return writeJSON(s.out, evt)
		}
		return renderEvent(s.out, evt)
	})
}

func (s *session) collectible(res *structpb.Struct, verb string) error {
	if s.json {
		return writeJSON(s.out, res)
	}
	item := object(res, "collectible")
	return renderCollectibles(s.out, verb+" item "+text(item, "item_id"), []*structpb.Struct{item})
}

func (s *session) swap(res *structpb.Struct, verb string) error {
	if s.json {
		return writeJSON(s.out, res)
	}
	sw := object(res, "swap")
	return renderSwaps(s.out, verb+" swap "+text(sw, "swap_id"), []*structpb.Struct{sw})
}

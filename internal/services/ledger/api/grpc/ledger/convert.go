package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/louisbranch/spinvault/internal/services/ledger/domain/event"
	core "github.com/louisbranch/spinvault/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/reward"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/roulette"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/trade"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func addresses(addrs []core.Address) []any {
	out := make([]any, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.String())
	}
	return out
}

func collectibleFields(c reward.Collectible) map[string]any {
	return map[string]any{
		"item_id":          uint64(c.ID),
		"owner":            c.Owner.String(),
		"name":             c.Name,
		"tier":             c.Tier.String(),
		"content_hash":     c.ContentHash,
		"created_at":       formatTime(c.CreatedAt),
		"last_transfer_at": formatTime(c.LastTransferAt),
		"provenance":       addresses(c.Provenance),
	}
}

func gameFields(g roulette.Game) map[string]any {
	return map[string]any{
		"game_id":    uint64(g.ID),
		"player":     g.Player.String(),
		"bet_kind":   g.Kind.String(),
		"number":     g.Number,
		"outcome":    g.Outcome,
		"won":        g.Won,
		"stake":      g.Stake.String(),
		"created_at": formatTime(g.CreatedAt),
		"resolved":   g.Resolved,
	}
}

func swapFields(s trade.Swap) map[string]any {
	return map[string]any{
		"swap_id":       uint64(s.ID),
		"proposer":      s.Proposer.String(),
		"target":        s.Target.String(),
		"proposer_item": uint64(s.ProposerItem),
		"target_item":   uint64(s.TargetItem),
		"status":        s.Status.String(),
		"created_at":    formatTime(s.CreatedAt),
		"resolved_at":   formatTime(s.ResolvedAt),
	}
}

func eventFields(evt event.Event) (map[string]any, error) {
	var payload map[string]any
	if len(evt.PayloadJSON) > 0 {
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return nil, fmt.Errorf("decode payload of event %d: %w", evt.Seq, err)
		}
	}
	return map[string]any{
		"seq":       evt.Seq,
		"event_id":  evt.ID,
		"type":      string(evt.Type),
		"domain":    evt.Type.Domain(),
		"actor":     evt.Actor,
		"timestamp": formatTime(evt.Timestamp),
		"payload":   payload,
		"prev_hash": evt.PrevHash,
		"hash":      evt.Hash,
	}, nil
}

func swapList(swaps []trade.Swap) []any {
	out := make([]any, 0, len(swaps))
	for _, s := range swaps {
		out = append(out, swapFields(s))
	}
	return out
}

// toStruct builds a response document. A failure here is a programming error.
func toStruct(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

package ledger

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls the ledger service on behalf of one actor.
type Client struct {
	conn   grpc.ClientConnInterface
	actor  string
	locale string
}

// NewClient returns a client that identifies as actor.
func NewClient(conn grpc.ClientConnInterface, actor string) *Client {
	return &Client{conn: conn, actor: actor}
}

// WithLocale returns a copy of c that asks for messages in locale.
func (c *Client) WithLocale(locale string) *Client {
	out := *c
	out.locale = locale
	return &out
}

func (c *Client) outgoing(ctx context.Context) context.Context {
	kv := make([]string, 0, 4)
	if c.actor != "" {
		kv = append(kv, ActorHeader, c.actor)
	}
	if c.locale != "" {
		kv = append(kv, LocaleHeader, c.locale)
	}
	if len(kv) == 0 {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, kv...)
}

// Call invokes a unary method with a request document.
func (c *Client) Call(ctx context.Context, method string, req map[string]any) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(c.outgoing(ctx), FullMethod(method), in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Play bets stake on kind. number only matters for NUMBER bets.
func (c *Client) Play(ctx context.Context, kind string, number int, stake string) (*structpb.Struct, error) {
	return c.Call(ctx, MethodPlay, map[string]any{"bet_kind": kind, "number": number, "stake": stake})
}

// Mint issues a collectible to an address.
func (c *Client) Mint(ctx context.Context, to, name, tier, contentHash string) (*structpb.Struct, error) {
	return c.Call(ctx, MethodMint, map[string]any{"to": to, "name": name, "tier": tier, "content_hash": contentHash})
}

// Transfer moves item to another address.
func (c *Client) Transfer(ctx context.Context, item uint64, to string) (*structpb.Struct, error) {
	return c.Call(ctx, MethodTransfer, map[string]any{"item_id": item, "to": to})
}

// ProposeSwap offers give for target's want.
func (c *Client) ProposeSwap(ctx context.Context, give uint64, target string, want uint64) (*structpb.Struct, error) {
	return c.Call(ctx, MethodProposeSwap, map[string]any{"proposer_item": give, "target": target, "target_item": want})
}

// AcceptSwap accepts a swap addressed to the actor.
func (c *Client) AcceptSwap(ctx context.Context, id uint64) (*structpb.Struct, error) {
	return c.Call(ctx, MethodAcceptSwap, map[string]any{"swap_id": id})
}

// CancelSwap cancels a swap the actor proposed.
func (c *Client) CancelSwap(ctx context.Context, id uint64) (*structpb.Struct, error) {
	return c.Call(ctx, MethodCancelSwap, map[string]any{"swap_id": id})
}

// RejectSwap rejects a swap addressed to the actor.
func (c *Client) RejectSwap(ctx context.Context, id uint64) (*structpb.Struct, error) {
	return c.Call(ctx, MethodRejectSwap, map[string]any{"swap_id": id})
}

// ListInventory lists owner's items; an empty owner means the actor.
func (c *Client) ListInventory(ctx context.Context, owner string) (*structpb.Struct, error) {
	return c.Call(ctx, MethodListInventory, map[string]any{"owner": owner})
}

// GetAccount returns counters and cooldowns; an empty address means the actor.
func (c *Client) GetAccount(ctx context.Context, address string) (*structpb.Struct, error) {
	return c.Call(ctx, MethodGetAccount, map[string]any{"address": address})
}

// ListSwaps lists swaps in scope for address.
func (c *Client) ListSwaps(ctx context.Context, address, scope string) (*structpb.Struct, error) {
	return c.Call(ctx, MethodListSwaps, map[string]any{"address": address, "scope": scope})
}

// WatchEvents calls fn for each event after afterSeq until ctx ends or fn
// returns an error.
func (c *Client) WatchEvents(ctx context.Context, afterSeq uint64, fn func(*structpb.Struct) error) error {
	desc := &ServiceDesc.Streams[0]
	stream, err := c.conn.NewStream(c.outgoing(ctx), desc, FullMethod(MethodWatchEvents))
	if err != nil {
		return err
	}
	if err := stream.SendMsg(&structpb.Struct{Fields: map[string]*structpb.Value{
		"after_seq": structpb.NewNumberValue(float64(afterSeq)),
	}}); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
}

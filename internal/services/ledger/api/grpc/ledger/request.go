package ledger

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/spinvault/internal/platform/errors"
	"github.com/louisbranch/spinvault/internal/platform/errors/i18n"
	core "github.com/louisbranch/spinvault/internal/services/ledger/domain/ledger"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Metadata keys read from incoming requests.
const (
	ActorHeader  = "x-spinvault-actor"
	LocaleHeader = "accept-language"
)

// maxExactInteger is the largest integer a Struct number holds exactly.
const maxExactInteger = 1 << 53

func firstMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

// localeFrom resolves the caller's Accept-Language metadata to a registered
// message locale.
func localeFrom(ctx context.Context) string {
	return i18n.Match(firstMetadata(ctx, LocaleHeader))
}

func handleError(ctx context.Context, err error) error {
	if _, ok := status.FromError(err); ok && apperrors.CodeOf(err) == apperrors.CodeUnknown {
		return err
	}
	return apperrors.HandleError(err, localeFrom(ctx))
}

// actorFrom returns the authenticated caller address.
func actorFrom(ctx context.Context) (core.Address, error) {
	raw := firstMetadata(ctx, ActorHeader)
	if raw == "" {
		return "", status.Error(codes.Unauthenticated, "actor metadata is required")
	}
	addr, err := core.ParseAddress(raw)
	if err != nil {
		return "", handleError(ctx, err)
	}
	return addr, nil
}

func stringField(in *structpb.Struct, key string) string {
	return strings.TrimSpace(in.GetFields()[key].GetStringValue())
}

// addressField reads an address, falling back to fallback when absent.
func addressField(ctx context.Context, in *structpb.Struct, key string, fallback core.Address) (core.Address, error) {
	raw := stringField(in, key)
	if raw == "" && fallback != "" {
		return fallback, nil
	}
	addr, err := core.ParseAddress(raw)
	if err != nil {
		return "", handleError(ctx, err)
	}
	return addr, nil
}

func present(in *structpb.Struct, key string) bool {
	v, ok := in.GetFields()[key]
	if !ok || v == nil {
		return false
	}
	_, null := v.GetKind().(*structpb.Value_NullValue)
	return !null
}

// intField reads an integer sent as a number or a decimal string.
func intField(in *structpb.Struct, key string) (int64, bool, error) {
	if !present(in, key) {
		return 0, false, nil
	}
	switch kind := in.GetFields()[key].GetKind().(type) {
	case *structpb.Value_NumberValue:
		f := kind.NumberValue
		if f != math.Trunc(f) || math.Abs(f) > maxExactInteger {
			return 0, true, invalidField(key, "an integer")
		}
		return int64(f), true, nil
	case *structpb.Value_StringValue:
		n, err := strconv.ParseInt(strings.TrimSpace(kind.StringValue), 10, 64)
		if err != nil {
			return 0, true, invalidField(key, "an integer")
		}
		return n, true, nil
	default:
		return 0, true, invalidField(key, "an integer")
	}
}

func idField(in *structpb.Struct, key string) (uint64, error) {
	n, ok, err := intField(in, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	if n < 0 {
		return 0, invalidField(key, "a non-negative integer")
	}
	return uint64(n), nil
}

// windowField reads the offset/limit pair of a list request.
func windowField(in *structpb.Struct) (int32, int32, error) {
	offset, _, err := intField(in, "offset")
	if err != nil {
		return 0, 0, err
	}
	limit, _, err := intField(in, "limit")
	if err != nil {
		return 0, 0, err
	}
	if offset < 0 || offset > math.MaxInt32 {
		return 0, 0, invalidField("offset", "a non-negative integer")
	}
	if limit < 0 || limit > math.MaxInt32 {
		return 0, 0, invalidField("limit", "a non-negative integer")
	}
	return int32(offset), int32(limit), nil
}

// decimalField reads an amount; strings keep full precision.
func decimalField(in *structpb.Struct, key string) (decimal.Decimal, error) {
	if !present(in, key) {
		return decimal.Zero, nil
	}
	switch kind := in.GetFields()[key].GetKind().(type) {
	case *structpb.Value_StringValue:
		d, err := decimal.NewFromString(strings.TrimSpace(kind.StringValue))
		if err != nil {
			return decimal.Zero, invalidField(key, "a decimal amount")
		}
		return d, nil
	case *structpb.Value_NumberValue:
		return decimal.NewFromFloat(kind.NumberValue), nil
	default:
		return decimal.Zero, invalidField(key, "a decimal amount")
	}
}

// rawField renders a string or number field as text for the domain parsers.
func rawField(in *structpb.Struct, key string) string {
	switch kind := in.GetFields()[key].GetKind().(type) {
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(kind.NumberValue, 'f', -1, 64)
	case *structpb.Value_StringValue:
		return strings.TrimSpace(kind.StringValue)
	default:
		return ""
	}
}

func invalidField(key, want string) error {
	return status.Error(codes.InvalidArgument, fmt.Sprintf("%s must be %s", key, want))
}

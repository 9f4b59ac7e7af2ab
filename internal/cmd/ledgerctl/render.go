package ledgerctl

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/spinvault/internal/platform/errors"
	"github.com/pterm/pterm"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

func value(s *structpb.Struct, key string) *structpb.Value {
	return s.GetFields()[key]
}

// text renders a scalar field; integral numbers print without a fraction.
func text(s *structpb.Struct, key string) string {
	v := value(s, key)
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return kind.StringValue
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(kind.NumberValue, 'f', -1, 64)
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(kind.BoolValue)
	case *structpb.Value_ListValue:
		parts := make([]string, 0, len(kind.ListValue.GetValues()))
		for _, item := range kind.ListValue.GetValues() {
			parts = append(parts, item.GetStringValue())
		}
		return strings.Join(parts, " > ")
	default:
		return "-"
	}
}

func object(s *structpb.Struct, key string) *structpb.Struct {
	return value(s, key).GetStructValue()
}

func list(s *structpb.Struct, key string) []*structpb.Struct {
	values := value(s, key).GetListValue().GetValues()
	out := make([]*structpb.Struct, 0, len(values))
	for _, v := range values {
		out = append(out, v.GetStructValue())
	}
	return out
}

func writeJSON(out io.Writer, msg *structpb.Struct) error {
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func renderTable(out io.Writer, title string, header []string, rows [][]string) error {
	data := pterm.TableData{header}
	data = append(data, rows...)
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, pterm.DefaultSection.Sprint(title), table, "\n")
	return err
}

func renderCollectibles(out io.Writer, title string, items []*structpb.Struct) error {
	rows := make([][]string, 0, len(items))
	for _, c := range items {
		rows = append(rows, []string{
			text(c, "item_id"),
			text(c, "name"),
			text(c, "tier"),
			text(c, "owner"),
			text(c, "created_at"),
			text(c, "provenance"),
		})
	}
	return renderTable(out, title, []string{"ID", "NAME", "TIER", "OWNER", "MINTED", "PREVIOUS OWNERS"}, rows)
}

func renderSwaps(out io.Writer, title string, swaps []*structpb.Struct) error {
	rows := make([][]string, 0, len(swaps))
	for _, s := range swaps {
		rows = append(rows, []string{
			text(s, "swap_id"),
			text(s, "status"),
			text(s, "proposer"),
			text(s, "proposer_item"),
			text(s, "target"),
			text(s, "target_item"),
			text(s, "created_at"),
		})
	}
	return renderTable(out, title, []string{"ID", "STATUS", "PROPOSER", "GIVES", "TARGET", "WANTS", "CREATED"}, rows)
}

func renderFields(out io.Writer, title string, s *structpb.Struct, keys []string) error {
	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{key, text(s, key)})
	}
	return renderTable(out, title, []string{"FIELD", "VALUE"}, rows)
}

func renderPlay(out io.Writer, res *structpb.Struct) error {
	game := object(res, "game")
	bet := text(game, "bet_kind")
	if bet == "NUMBER" {
		bet += " " + text(game, "number")
	}
	body := pterm.Sprintfln("Bet: %s\nOutcome: %s", bet, text(game, "outcome"))
	title := pterm.LightRed("|LOST|")
	if value(game, "won").GetBoolValue() {
		title = pterm.LightGreen("|WON|")
		if prize := object(res, "reward"); prize != nil {
			body += pterm.Sprintfln("Reward: #%s %s (%s)", text(prize, "item_id"), text(prize, "name"), text(prize, "tier"))
		} else {
			body += pterm.Sprintln("Reward: none, inventory is full")
		}
	}
	box := pterm.DefaultBox.WithHorizontalPadding(4).WithTitle(title).WithTitleTopCenter()
	_, err := fmt.Fprintln(out, box.Sprint(body))
	return err
}

func renderEvent(out io.Writer, evt *structpb.Struct) error {
	payload, err := protojson.Marshal(object(evt, "payload"))
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	_, err = fmt.Fprintln(out, pterm.Info.Sprintf("#%s %s by %s %s",
		text(evt, "seq"), text(evt, "type"), text(evt, "actor"), payload))
	return err
}

// Describe renders err for a terminal. Ledger errors show their code, the
// localized message, and any metadata.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if domain := apperrors.FromGRPCStatus(err); domain != nil {
		msg := domain.Message
		if st, ok := status.FromError(err); ok {
			for _, detail := range st.Details() {
				if lm, ok := detail.(*errdetails.LocalizedMessage); ok && lm.GetMessage() != "" {
					msg = lm.GetMessage()
				}
			}
		}
		line := fmt.Sprintf("%s: %s", domain.Code, msg)
		if len(domain.Metadata) > 0 {
			pairs := make([]string, 0, len(domain.Metadata))
			for _, k := range slices.Sorted(maps.Keys(domain.Metadata)) {
				pairs = append(pairs, k+"="+domain.Metadata[k])
			}
			line += " (" + strings.Join(pairs, ", ") + ")"
		}
		return line
	}
	if st, ok := status.FromError(err); ok {
		return fmt.Sprintf("%s: %s", st.Code(), st.Message())
	}
	return err.Error()
}

package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// errUnsupportedFormat is returned when the requested output format is not supported.
var errUnsupportedFormat = errors.New("unsupported output format")

// formatSnapshot renders a dispatcher snapshot in the requested format.
func formatSnapshot(snap *snapshotWire, format string) (string, error) {
	switch format {
	case formatJSON:
		return formatSnapshotJSON(snap)
	case formatTable:
		return formatSnapshotTable(snap), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func formatSnapshotJSON(snap *snapshotWire) (string, error) {
	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(out) + "\n", nil
}

func formatSnapshotTable(snap *snapshotWire) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "ROLE\tSUBNET\tHOLD-CYCLE\tSESSIONS\tRADIO\n")
	fmt.Fprintf(w, "%s\t%#02x\t%d\t%d\t%t\n",
		snap.Role, snap.Subnet, snap.HoldCycle, snap.SessionCount, snap.RadioActive)
	_ = w.Flush()

	fmt.Fprintln(&buf)
	w = tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "IDLE-EVENT\tENABLED\tNEXT\n")
	for _, ev := range []struct {
		name string
		ev   idleEventWire
	}{
		{"HSS", snap.HSS},
		{"SSS", snap.SSS},
		{"BTS", snap.BTS},
	} {
		fmt.Fprintf(w, "%s\t%t\t%d\n", ev.name, ev.ev.Enabled, ev.ev.NextEvent)
	}
	_ = w.Flush()

	if snap.TopSession != nil {
		fmt.Fprintln(&buf)
		fmt.Fprintf(&buf, "top session: id=%d channel=%d subnet=%#02x state=%s counter=%d\n",
			snap.TopSession.ID, snap.TopSession.Channel, snap.TopSession.Subnet,
			snap.TopSession.State, snap.TopSession.Counter)
	} else {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "top session: none")
	}

	return buf.String()
}

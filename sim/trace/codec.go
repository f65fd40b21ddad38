package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// wireMetadata is the JSON-on-the-wire shape of a Metadata record (spec.md §6).
type wireMetadata struct {
	Type           string `json:"type"`
	Strategy       string `json:"strategy,omitempty"`
	BlockID        *int   `json:"block_id,omitempty"`
	ProtectedCount *int   `json:"protected_count,omitempty"`
	CoveredIDs     []int  `json:"covered_ids,omitempty"`
	StartID        *int   `json:"start_id,omitempty"`
	EndID          *int   `json:"end_id,omitempty"`
	Info           string `json:"info,omitempty"`
}

// MarshalJSON encodes a non-real Metadata record to the wire schema of spec.md §6.
// Real packets (Kind == KindReal) are never marshaled directly; callers check
// IsReal before writing a third field.
func (m Metadata) MarshalJSON() ([]byte, error) {
	w := wireMetadata{Strategy: m.Strategy.String(), Info: m.Info}
	switch m.Kind {
	case KindDummy:
		w.Type = "DUMMY"
	case KindRepairB:
		w.Type = "FEC"
		w.BlockID = &m.BlockID
		w.ProtectedCount = &m.ProtectedCount
	case KindRepairC:
		w.Type = "FEC"
		w.CoveredIDs = m.CoveredIDs
		if w.CoveredIDs == nil {
			w.CoveredIDs = []int{}
		}
	case KindRepairD:
		w.Type = "FEC"
		w.StartID = &m.StartID
		w.EndID = &m.EndID
	default:
		return nil, fmt.Errorf("trace: cannot marshal metadata of kind %d", m.Kind)
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a wire-format metadata object into Metadata.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var w wireMetadata
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	strategy, _ := ParseStrategy(w.Strategy)
	switch w.Type {
	case "DUMMY":
		*m = Dummy(strategy, w.Info)
	case "FEC":
		switch {
		case w.BlockID != nil && w.ProtectedCount != nil:
			*m = RepairB(*w.BlockID, *w.ProtectedCount)
		case w.StartID != nil && w.EndID != nil:
			*m = RepairD(*w.StartID, *w.EndID)
		case w.CoveredIDs != nil:
			*m = RepairC(w.CoveredIDs)
		default:
			return fmt.Errorf("trace: FEC metadata missing strategy-specific fields: %s", data)
		}
	default:
		return fmt.Errorf("%w: unrecognized metadata type %q", ErrMalformedInput, w.Type)
	}
	return nil
}

// ReadFile parses a trace file in the tab-separated format of spec.md §6:
// "<timestamp>\t<signed_length>[\t<json_metadata>]", one packet per line,
// sorted by timestamp (mixing both directions).
func ReadFile(path string) ([]*Packet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("trace: open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses trace lines from r. See ReadFile for the format.
func Read(r io.Reader) ([]*Packet, error) {
	var packets []*Packet
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		p, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("trace: line %d: %w", lineNo, err)
		}
		packets = append(packets, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("trace: scan: %w", err)
	}
	return packets, nil
}

func parseLine(line string) (*Packet, error) {
	fields := strings.SplitN(line, "\t", 3)
	if len(fields) < 2 {
		return nil, fmt.Errorf("%w: expected at least 2 tab-separated fields, got %d", ErrMalformedInput, len(fields))
	}
	ts, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: timestamp %q: %v", ErrMalformedInput, fields[0], err)
	}
	length, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("%w: length %q: %v", ErrMalformedInput, fields[1], err)
	}
	p := &Packet{OriginalTS: ts, Length: length}
	if len(fields) == 3 && strings.TrimSpace(fields[2]) != "" {
		if err := json.Unmarshal([]byte(fields[2]), &p.Meta); err != nil {
			return nil, fmt.Errorf("%w: metadata %q: %v", ErrMalformedInput, fields[2], err)
		}
	}
	return p, nil
}

// WriteFile writes packets in the tab-separated trace format, sorted by timestamp.
func WriteFile(path string, packets []*Packet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("trace: create %s: %w", path, err)
	}
	defer f.Close()
	return Write(f, packets)
}

// Write serializes packets to w, sorted by timestamp ascending (stable).
func Write(w io.Writer, packets []*Packet) error {
	sorted := make([]*Packet, len(packets))
	copy(sorted, packets)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].OriginalTS < sorted[j].OriginalTS })

	bw := bufio.NewWriter(w)
	for _, p := range sorted {
		if err := writePacketLine(bw, p.OriginalTS, p.Length, p.Meta); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteReceivedFile writes a received-side trace (spec.md §6): real packets get
// two fields, repair/dummy packets (and FEC-recovered reals, emitted as real)
// get two or three fields depending on their own metadata kind.
func WriteReceivedFile(path string, received []Received) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("trace: create %s: %w", path, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	sort.SliceStable(received, func(i, j int) bool { return received[i].Timestamp < received[j].Timestamp })
	for _, r := range received {
		if err := writePacketLine(bw, r.Timestamp, r.Length, r.Meta); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writePacketLine(bw *bufio.Writer, ts float64, length int, meta Metadata) error {
	if _, err := fmt.Fprintf(bw, "%.6f\t%d", ts, length); err != nil {
		return err
	}
	if !meta.IsReal() {
		encoded, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("trace: marshal metadata: %w", err)
		}
		if _, err := bw.WriteString("\t"); err != nil {
			return err
		}
		if _, err := bw.Write(encoded); err != nil {
			return err
		}
	}
	_, err := bw.WriteString("\n")
	return err
}

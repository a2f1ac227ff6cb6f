package paircorr

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	metaPrefix     = "## "
	headerPrefix   = "#"
	defaultDigits  = 16
	maxLineScanned = 1 << 20
)

// WriteText writes t as whitespace-separated columns. The metadata is a
// YAML document on lines starting with "## ", followed by one "#" header
// line naming the columns and one row per bin. Floats are written with
// precision digits after the decimal point; 16 round-trips every float64.
func WriteText(w io.Writer, t *Table, precision int) error {
	if precision <= 0 {
		precision = defaultDigits
	}
	meta, err := yaml.Marshal(t.Meta)
	if err != nil {
		return fmt.Errorf("paircorr: encode table metadata: %w", err)
	}

	bw := bufio.NewWriter(w)
	for _, line := range strings.Split(strings.TrimRight(string(meta), "\n"), "\n") {
		bw.WriteString(metaPrefix)
		bw.WriteString(line)
		bw.WriteByte('\n')
	}

	width := precision + 8
	bw.WriteString(headerPrefix)
	for i, name := range t.Columns {
		wd := width
		if i == 0 {
			wd--
		}
		fmt.Fprintf(bw, "%*s", wd, name)
	}
	bw.WriteByte('\n')

	for k := 0; k < t.NumRows(); k++ {
		for _, name := range t.Columns {
			if name == npairsColumn {
				fmt.Fprintf(bw, "%*d", width, t.NPairs[k])
				continue
			}
			fmt.Fprintf(bw, "%*.*e", width, precision, t.Float[name][k])
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// ReadText parses the format written by WriteText.
func ReadText(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineScanned)

	var meta bytes.Buffer
	t := &Table{Float: make(map[string][]float64)}
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		switch {
		case strings.HasPrefix(text, "##"):
			meta.WriteString(strings.TrimPrefix(strings.TrimPrefix(text, "##"), " "))
			meta.WriteByte('\n')
		case strings.HasPrefix(text, headerPrefix):
			t.Columns = strings.Fields(strings.TrimPrefix(text, headerPrefix))
		case strings.TrimSpace(text) == "":
		default:
			fields := strings.Fields(text)
			if t.Columns == nil {
				return nil, fmt.Errorf("%w: line %d: data before the column header", ErrValue, line)
			}
			if len(fields) != len(t.Columns) {
				return nil, fmt.Errorf("%w: line %d: %d values for %d columns", ErrValue, line, len(fields), len(t.Columns))
			}
			for i, name := range t.Columns {
				if name == npairsColumn {
					v, err := parseCount(fields[i])
					if err != nil {
						return nil, fmt.Errorf("%w: line %d: npairs: %v", ErrValue, line, err)
					}
					t.NPairs = append(t.NPairs, v)
					continue
				}
				v, err := strconv.ParseFloat(fields[i], 64)
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %s: %v", ErrValue, line, name, err)
				}
				t.Float[name] = append(t.Float[name], v)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("paircorr: read table: %w", err)
	}
	if err := yaml.Unmarshal(meta.Bytes(), &t.Meta); err != nil {
		return nil, fmt.Errorf("%w: table metadata: %v", ErrValue, err)
	}
	return t, nil
}

// parseCount accepts integers and, for files written by other tools,
// integral floats.
func parseCount(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

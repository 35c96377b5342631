// Package loader reads datasets from disk into grids and writes grids back
// out as CSV.
package loader

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	goavro "github.com/linkedin/goavro/v2"
	"github.com/parquet-go/parquet-go"

	"github.com/razeghi71/csvqb/table"
)

// decoder turns an open file into a grid.
type decoder func(f *os.File) (table.Grid, error)

var decoders = map[string]decoder{
	".csv":     func(f *os.File) (table.Grid, error) { return ReadCSV(f) },
	".json":    decodeJSON,
	".jsonl":   decodeJSONL,
	".avro":    decodeAvro,
	".parquet": decodeParquet,
}

// Extensions lists the file extensions Load understands.
func Extensions() []string {
	exts := make([]string, 0, len(decoders))
	for ext := range decoders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Load reads a file into a Dataset whose identifier is the given path. The
// format is picked by extension.
func Load(filename string) (table.Dataset, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	decode, ok := decoders[ext]
	if !ok {
		return table.Dataset{}, fmt.Errorf("unsupported file format %q (supported: %s)", ext, strings.Join(Extensions(), ", "))
	}

	f, err := os.Open(filename)
	if err != nil {
		return table.Dataset{}, fmt.Errorf("cannot open %s: %w", filename, err)
	}
	defer f.Close()

	g, err := decode(f)
	if err != nil {
		return table.Dataset{}, fmt.Errorf("%s: %w", filename, err)
	}
	return table.Dataset{ID: filename, Grid: g}, nil
}

// LoadAll loads every file in order and stops at the first failure.
func LoadAll(filenames []string) (table.Store, error) {
	store := make(table.Store, 0, len(filenames))
	for _, name := range filenames {
		ds, err := Load(name)
		if err != nil {
			return nil, err
		}
		store = append(store, ds)
	}
	return store, nil
}

// ReadCSV parses delimited text into a grid. Cells are trimmed and rows may
// have differing lengths.
func ReadCSV(r io.Reader) (table.Grid, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	var g table.Grid
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return g, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV row %d: %w", len(g)+1, err)
		}
		row := make(table.Row, len(fields))
		for i, s := range fields {
			row[i] = strings.TrimSpace(s)
		}
		g = append(g, row)
	}
}

// WriteCSV writes a grid as comma separated text.
func WriteCSV(w io.Writer, g table.Grid) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(g.Records()); err != nil {
		return fmt.Errorf("write CSV: %w", err)
	}
	return nil
}

// Save writes a grid to filename as CSV.
func Save(filename string, g table.Grid) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", filename, err)
	}
	if err := WriteCSV(f, g); err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: %w", filename, err)
	}
	return f.Close()
}

func decodeJSON(f *os.File) (table.Grid, error) {
	dec := json.NewDecoder(bufio.NewReader(f))
	dec.UseNumber()

	var objects []map[string]interface{}
	if err := dec.Decode(&objects); err != nil {
		return nil, fmt.Errorf("decode JSON: %w (expected array of objects)", err)
	}

	b := newGridBuilder(nil)
	for _, obj := range objects {
		b.add(obj)
	}
	return b.grid(), nil
}

func decodeJSONL(f *os.File) (table.Grid, error) {
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	b := newGridBuilder(nil)
	for n := 1; sc.Scan(); n++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text))
		dec.UseNumber()
		var obj map[string]interface{}
		if err := dec.Decode(&obj); err != nil {
			return nil, fmt.Errorf("line %d: invalid JSON: %w", n, err)
		}
		b.add(obj)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan JSONL: %w", err)
	}
	return b.grid(), nil
}

func decodeAvro(f *os.File) (table.Grid, error) {
	ocf, err := goavro.NewOCFReader(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("open avro container: %w", err)
	}

	var schema struct {
		Fields []struct {
			Name string `json:"name"`
		} `json:"fields"`
	}
	if err := json.Unmarshal([]byte(ocf.Codec().Schema()), &schema); err != nil {
		return nil, fmt.Errorf("avro schema: %w", err)
	}
	header := make([]string, len(schema.Fields))
	for i, fld := range schema.Fields {
		header[i] = fld.Name
	}

	b := newGridBuilder(header)
	for ocf.Scan() {
		datum, err := ocf.Read()
		if err != nil {
			return nil, fmt.Errorf("avro record %d: %w", b.len()+1, err)
		}
		obj, ok := datum.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("avro record %d: got %T, want record", b.len()+1, datum)
		}
		b.add(obj)
	}
	if err := ocf.Err(); err != nil {
		return nil, fmt.Errorf("avro container: %w", err)
	}
	return b.grid(), nil
}

func decodeParquet(f *os.File) (table.Grid, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	fields := pf.Schema().Fields()
	header := make([]string, len(fields))
	for i, fld := range fields {
		header[i] = fld.Name()
	}

	pr := parquet.NewReader(pf)
	defer pr.Close()

	b := newGridBuilder(header)
	for {
		obj := make(map[string]interface{}, len(header))
		if err := pr.Read(&obj); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("parquet row %d: %w", b.len()+1, err)
		}
		b.add(obj)
	}
	return b.grid(), nil
}

// gridBuilder collects decoded records. With a fixed header, keys outside
// it are ignored; otherwise the header grows as new keys appear, each
// record's new keys taken alphabetically.
type gridBuilder struct {
	header []string
	fixed  bool
	known  map[string]bool
	objs   []map[string]interface{}
}

func newGridBuilder(header []string) *gridBuilder {
	return &gridBuilder{header: header, fixed: header != nil, known: make(map[string]bool)}
}

func (b *gridBuilder) len() int { return len(b.objs) }

func (b *gridBuilder) add(obj map[string]interface{}) {
	b.objs = append(b.objs, obj)
	if b.fixed {
		return
	}
	var fresh []string
	for k := range obj {
		if !b.known[k] {
			b.known[k] = true
			fresh = append(fresh, k)
		}
	}
	sort.Strings(fresh)
	b.header = append(b.header, fresh...)
}

func (b *gridBuilder) grid() table.Grid {
	if len(b.header) == 0 {
		return nil
	}
	g := make(table.Grid, 0, len(b.objs)+1)
	g = append(g, table.Row(b.header))
	for _, obj := range b.objs {
		row := make(table.Row, len(b.header))
		for i, k := range b.header {
			row[i] = cell(obj[k])
		}
		g = append(g, row)
	}
	return g
}

// cell renders a decoded value as grid text. Missing and null values become
// empty cells; nested values are re-encoded as JSON.
func cell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case map[string]interface{}:
		// goavro decodes a non-null union member as {"type": value}
		if len(x) == 1 {
			for _, inner := range x {
				return cell(inner)
			}
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

package term

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// Marshal encodes t as canonical JSON: sorted object keys, NFC-normalized
// strings, no HTML escaping. Coefficients are encoded as strings holding
// the shortest decimal that round-trips, so the output never carries a
// JSON float and the same tree always yields the same bytes.
//
// The encoding is self-describing: every node is an object with a "kind"
// field, and container children keep their order.
func Marshal(t Term) ([]byte, error) {
	node, err := toNode(t)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, node); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes canonical JSON produced by Marshal.
func Unmarshal(data []byte) (Term, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var w wireTerm
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("decode term: %w", err)
	}
	return w.term()
}

// node is the intermediate form fed to the canonical writer. Values are
// string, int, bool, []any or node.
type node map[string]any

func toNode(t Term) (node, error) {
	switch c := t.(type) {
	case *Float:
		return node{"kind": "float", "value": encodeFloat(c.Value)}, nil
	case *Fraction:
		return node{"kind": "fraction", "num": encodeFloat(c.Num), "den": encodeFloat(c.Den)}, nil
	case *Param:
		return node{"kind": "param"}, nil
	case *Atom:
		return node{"kind": "atom", "flavor": c.Flavor, "i": c.I, "j": c.J, "transformed": c.Transformed}, nil
	case *Diagonal:
		return node{"kind": "diagonal", "i": c.I, "j": c.J}, nil
	case *Delta:
		return node{"kind": "delta", "i": c.I, "j": c.J, "barred": c.Barred}, nil
	case *Marker:
		return node{"kind": "marker", "id": c.ID}, nil
	case *Sum:
		children, err := toNodes(c.Terms)
		if err != nil {
			return nil, fmt.Errorf("sum: %w", err)
		}
		return node{"kind": "sum", "terms": children}, nil
	case *Product:
		children, err := toNodes(c.Terms)
		if err != nil {
			return nil, fmt.Errorf("product: %w", err)
		}
		return node{"kind": "product", "terms": children}, nil
	case *Trace:
		if c.Expr == nil {
			return nil, fmt.Errorf("trace: missing argument")
		}
		expr, err := toNode(c.Expr)
		if err != nil {
			return nil, fmt.Errorf("trace: %w", err)
		}
		return node{"kind": "trace", "expr": expr}, nil
	case *Contraction:
		pairs := make([]any, len(c.Pairs))
		for i, p := range c.Pairs {
			pairs[i] = []any{p.I, p.J}
		}
		return node{"kind": "contraction", "order": c.Order, "pairs": pairs}, nil
	case nil:
		return nil, fmt.Errorf("nil term")
	default:
		return nil, fmt.Errorf("unsupported term %T", t)
	}
}

func toNodes(terms []Term) ([]any, error) {
	out := make([]any, len(terms))
	for i, t := range terms {
		n, err := toNode(t)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = n
	}
	return out, nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case string:
		return writeString(buf, val)
	case int:
		buf.WriteString(strconv.Itoa(val))
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case node:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		// Keys are ASCII, so byte order equals UTF-16 code unit order.
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("%q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported value for canonical JSON: %T", v)
	}
	return nil
}

// writeString writes s as a JSON string after NFC normalization.
func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	// Drop the encoder's trailing newline.
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}

func encodeFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func decodeFloat(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return v, nil
}

type wireTerm struct {
	Kind        string     `json:"kind"`
	Value       string     `json:"value"`
	Num         string     `json:"num"`
	Den         string     `json:"den"`
	Flavor      string     `json:"flavor"`
	I           int        `json:"i"`
	J           int        `json:"j"`
	Transformed bool       `json:"transformed"`
	Barred      bool       `json:"barred"`
	ID          int        `json:"id"`
	Terms       []wireTerm `json:"terms"`
	Expr        *wireTerm  `json:"expr"`
	Order       int        `json:"order"`
	Pairs       [][2]int   `json:"pairs"`
}

func (w *wireTerm) term() (Term, error) {
	switch w.Kind {
	case "float":
		v, err := decodeFloat("float value", w.Value)
		if err != nil {
			return nil, err
		}
		return NewFloat(v), nil
	case "fraction":
		num, err := decodeFloat("fraction num", w.Num)
		if err != nil {
			return nil, err
		}
		den, err := decodeFloat("fraction den", w.Den)
		if err != nil {
			return nil, err
		}
		return NewFraction(num, den), nil
	case "param":
		return NewParam(), nil
	case "atom":
		return &Atom{Flavor: norm.NFC.String(w.Flavor), I: w.I, J: w.J, Transformed: w.Transformed}, nil
	case "diagonal":
		return &Diagonal{I: w.I, J: w.J}, nil
	case "delta":
		return &Delta{I: w.I, J: w.J, Barred: w.Barred}, nil
	case "marker":
		return NewMarker(w.ID), nil
	case "sum":
		children, err := wireChildren(w.Terms)
		if err != nil {
			return nil, fmt.Errorf("sum: %w", err)
		}
		return NewSum(children...), nil
	case "product":
		children, err := wireChildren(w.Terms)
		if err != nil {
			return nil, fmt.Errorf("product: %w", err)
		}
		return NewProduct(children...), nil
	case "trace":
		if w.Expr == nil {
			return nil, fmt.Errorf("trace: missing argument")
		}
		expr, err := w.Expr.term()
		if err != nil {
			return nil, fmt.Errorf("trace: %w", err)
		}
		return NewTrace(expr), nil
	case "contraction":
		pairs := make([]Pair, len(w.Pairs))
		for i, p := range w.Pairs {
			pairs[i] = Pair{I: p[0], J: p[1]}
		}
		return &Contraction{Pairs: pairs, Order: w.Order}, nil
	default:
		return nil, fmt.Errorf("unknown term kind %q", w.Kind)
	}
}

func wireChildren(ws []wireTerm) ([]Term, error) {
	out := make([]Term, len(ws))
	for i := range ws {
		t, err := ws[i].term()
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}

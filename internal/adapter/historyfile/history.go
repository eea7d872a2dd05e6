// Package historyfile reads and writes battle histories: a JSON document for
// API payloads and a line-oriented JSONL stream, optionally zstd compressed,
// for archives.
package historyfile

import (
	"bufio"
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"imperialism/internal/domain/conquest"
	"imperialism/internal/domain/territory"
)

var ErrInvalidDocument = errors.New("invalid history document")

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	documentSchema = mustCompile("document.schema.json")
	lineSchema     = mustCompile("line.schema.json")
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

const (
	kindRoster = "roster"
	kindBattle = "battle"
)

type Document struct {
	GameID  string                 `json:"game_id,omitempty"`
	Agents  []territory.Agent      `json:"agents"`
	Battles []conquest.BattleEvent `json:"battles"`
	Strict  bool                   `json:"strict,omitempty"`
}

type line struct {
	Kind     string            `json:"kind"`
	GameID   string            `json:"game_id,omitempty"`
	Agents   []territory.Agent `json:"agents,omitempty"`
	Seq      int               `json:"seq,omitempty"`
	Attacker territory.AgentID `json:"attacker,omitempty"`
	Defender territory.AgentID `json:"defender,omitempty"`
	Winner   territory.AgentID `json:"winner,omitempty"`
}

func mustCompile(name string) *jsonschema.Schema {
	b, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		panic(err)
	}
	return jsonschema.MustCompileString(name, string(b))
}

// DecodeJSON validates data against the document schema before decoding it.
func DecodeJSON(data []byte) (Document, error) {
	if err := validate(documentSchema, data); err != nil {
		return Document{}, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc, nil
}

// WriteJSONL writes one roster line followed by one line per battle.
func WriteJSONL(w io.Writer, doc Document) error {
	bw := bufio.NewWriterSize(w, 64*1024)
	enc := json.NewEncoder(bw)
	if err := enc.Encode(line{Kind: kindRoster, GameID: doc.GameID, Agents: doc.Agents}); err != nil {
		return err
	}
	for i, b := range doc.Battles {
		if err := enc.Encode(line{
			Kind:     kindBattle,
			Seq:      i + 1,
			Attacker: b.Attacker,
			Defender: b.Defender,
			Winner:   b.Winner,
		}); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func WriteJSONLZstd(w io.Writer, doc Document) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if err := WriteJSONL(enc, doc); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

// ReadJSONL reads a stream written by WriteJSONL or WriteJSONLZstd. The
// compression is detected from the stream itself.
func ReadJSONL(r io.Reader) (Document, error) {
	br := bufio.NewReader(r)
	var src io.Reader = br
	if head, err := br.Peek(len(zstdMagic)); err == nil && bytes.Equal(head, zstdMagic) {
		dec, err := zstd.NewReader(br)
		if err != nil {
			return Document{}, err
		}
		defer dec.Close()
		src = dec
	}

	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	var (
		doc       Document
		hasRoster bool
		lineNo    int
	)
	for sc.Scan() {
		lineNo++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		if err := validate(lineSchema, raw); err != nil {
			return Document{}, fmt.Errorf("line %d: %w", lineNo, err)
		}
		var l line
		if err := json.Unmarshal(raw, &l); err != nil {
			return Document{}, fmt.Errorf("%w: line %d: %v", ErrInvalidDocument, lineNo, err)
		}
		switch l.Kind {
		case kindRoster:
			if hasRoster {
				return Document{}, fmt.Errorf("%w: line %d: second roster", ErrInvalidDocument, lineNo)
			}
			hasRoster = true
			doc.GameID = l.GameID
			doc.Agents = l.Agents
		case kindBattle:
			if !hasRoster {
				return Document{}, fmt.Errorf("%w: line %d: battle before roster", ErrInvalidDocument, lineNo)
			}
			if l.Seq != 0 && l.Seq != len(doc.Battles)+1 {
				return Document{}, fmt.Errorf("%w: line %d: seq %d out of order", ErrInvalidDocument, lineNo, l.Seq)
			}
			doc.Battles = append(doc.Battles, conquest.BattleEvent{Attacker: l.Attacker, Defender: l.Defender, Winner: l.Winner})
		}
	}
	if err := sc.Err(); err != nil {
		return Document{}, err
	}
	if !hasRoster {
		return Document{}, fmt.Errorf("%w: missing roster", ErrInvalidDocument)
	}
	return doc, nil
}

func ReadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()
	if strings.HasSuffix(path, ".json") {
		data, err := io.ReadAll(f)
		if err != nil {
			return Document{}, err
		}
		return DecodeJSON(data)
	}
	return ReadJSONL(f)
}

// WriteFile picks the encoding from the extension: .json, .jsonl or
// .jsonl.zst.
func WriteFile(path string, doc Document) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	switch {
	case strings.HasSuffix(path, ".zst"):
		err = WriteJSONLZstd(f, doc)
	case strings.HasSuffix(path, ".json"):
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		err = enc.Encode(doc)
	default:
		err = WriteJSONL(f, doc)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func validate(s *jsonschema.Schema, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}

// Package lexicon parses a SALDO-style LMF XML lexicon into lexical entries,
// written-form lookups, and the semantic-relation edges the ancestry index is
// built from.
package lexicon

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klarsson/saldo-animacy/internal/ancestry"
	"github.com/klarsson/saldo-animacy/internal/lemgram"
	"github.com/klarsson/saldo-animacy/pkg/errors"
	"github.com/klarsson/saldo-animacy/pkg/logger"
)

type featXML struct {
	Att string `xml:"att,attr"`
	Val string `xml:"val,attr"`
}

type senseRelationXML struct {
	Targets string    `xml:"targets,attr"`
	Feats   []featXML `xml:"feat"`
}

type senseXML struct {
	ID        string             `xml:"id,attr"`
	Relations []senseRelationXML `xml:"SenseRelation"`
}

type formRepresentationXML struct {
	Feats []featXML `xml:"feat"`
}

type lemmaXML struct {
	FormRepresentation *formRepresentationXML `xml:"FormRepresentation"`
}

type lexicalEntryXML struct {
	Lemma  lemmaXML   `xml:"Lemma"`
	Senses []senseXML `xml:"Sense"`
}

func (fr *formRepresentationXML) feat(att string) string {
	if fr == nil {
		return ""
	}
	for _, f := range fr.Feats {
		if f.Att == att {
			return f.Val
		}
	}
	return ""
}

// relation is one labelled sense-to-sense link.
type relation struct {
	child   string
	label   string
	targets []string
}

// Lexicon is the parsed lexical resource: identifier → written form lookups
// plus the raw labelled relations between senses and the lemgram → sense
// links needed to classify corpus lemgrams.
type Lexicon struct {
	Entries int

	forms     map[string]string
	senseRels []relation
	lgSenses  map[string][]string
}

// ParseFile opens path and parses it. See Parse.
func ParseFile(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening lexicon %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse streams the LMF document, collecting every LexicalEntry. A structural
// XML failure yields ErrMalformedLexicon; entries with missing features are
// skipped, and missing relations are simply absent edges.
func Parse(r io.Reader) (*Lexicon, error) {
	lex := &Lexicon{
		forms:    make(map[string]string),
		lgSenses: make(map[string][]string),
	}
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Newf(errors.ErrMalformedLexicon, errors.ExitMalformedLexicon,
				"lexicon XML: %v", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "LexicalEntry" {
			continue
		}
		var entry lexicalEntryXML
		if err := dec.DecodeElement(&entry, &start); err != nil {
			return nil, errors.Newf(errors.ErrMalformedLexicon, errors.ExitMalformedLexicon,
				"lexical entry: %v", err)
		}
		lex.addEntry(&entry)
	}
	if lex.Entries == 0 {
		return nil, errors.New(errors.ErrMalformedLexicon, errors.ExitMalformedLexicon,
			"no lexical entries found")
	}
	logger.WithComponent("lexicon").Debug("lexicon parsed",
		"entries", lex.Entries,
		"forms", len(lex.forms),
	)
	return lex, nil
}

func (lex *Lexicon) addEntry(entry *lexicalEntryXML) {
	fr := entry.Lemma.FormRepresentation
	if fr == nil {
		return
	}
	lex.Entries++

	written := strings.TrimSpace(fr.feat("writtenForm"))
	lg := lemgram.Normalize(fr.feat("lemgram"))
	if lg != "" && written != "" {
		// First form wins; SALDO is consistent per lemgram.
		if _, seen := lex.forms[lg]; !seen {
			lex.forms[lg] = written
		}
	}

	for _, sense := range entry.Senses {
		sid := lemgram.Normalize(sense.ID)
		if sid == "" {
			continue
		}
		if written != "" {
			if _, seen := lex.forms[sid]; !seen {
				lex.forms[sid] = written
			}
		}
		if lg != "" {
			lex.lgSenses[lg] = append(lex.lgSenses[lg], sid)
		}
		for _, rel := range sense.Relations {
			label := ""
			for _, f := range rel.Feats {
				if f.Att == "label" {
					label = f.Val
					break
				}
			}
			if label == "" {
				continue
			}
			var targets []string
			for _, t := range strings.Fields(rel.Targets) {
				if t = lemgram.Normalize(t); t != "" {
					targets = append(targets, t)
				}
			}
			if len(targets) > 0 {
				lex.senseRels = append(lex.senseRels, relation{child: sid, label: label, targets: targets})
			}
		}
	}
}

// Edges flattens the lexicon into ancestry edges for the given relation
// label. Sense-to-sense links carry their own labels; lemgram-to-sense links
// are emitted under the requested label so that classifying a corpus lemgram
// descends into its senses.
func (lex *Lexicon) Edges(relation string) []ancestry.Edge {
	var edges []ancestry.Edge
	for lg, senses := range lex.lgSenses {
		for _, sid := range senses {
			if lg == sid {
				continue
			}
			edges = append(edges, ancestry.Edge{Child: lg, Parent: sid, Relation: relation})
		}
	}
	for _, rel := range lex.senseRels {
		for _, t := range rel.targets {
			edges = append(edges, ancestry.Edge{Child: rel.child, Parent: t, Relation: rel.label})
		}
	}
	return edges
}

// WrittenForm returns the representative written form recorded for a lemgram
// or sense identifier. It satisfies aggregate.FormSource, so the lexicon
// plugs straight into finalization and table rendering.
func (lex *Lexicon) WrittenForm(id string) (string, bool) {
	form, ok := lex.forms[id]
	return form, ok
}

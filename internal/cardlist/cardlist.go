// Package cardlist parses the free-text card list users paste in, one card
// per line: "[LANG] <name> <FOIL> [qty]", e.g. "Take the Bait Red NF 3".
package cardlist

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/optekal/fabprice/internal/model"
)

// LineError describes one unparseable input line.
type LineError struct {
	Line    string
	Message string
}

func (e LineError) Error() string {
	return fmt.Sprintf("%q: %s", e.Line, e.Message)
}

// Result carries the queries that parsed plus the lines that did not.
// Partial input is usable: callers search the good lines and show the bad
// ones.
type Result struct {
	Queries []model.CardQuery
	Errors  []LineError
}

var langPrefixRe = regexp.MustCompile(`(?i)^\[(EN|JP)\]\s*`)

// Parse reads a card list, one card per line. Blank lines are skipped.
func Parse(input string) Result {
	var res Result

	for _, raw := range strings.Split(input, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		q, err := parseLine(line)
		if err != nil {
			res.Errors = append(res.Errors, LineError{Line: line, Message: err.Error()})
			continue
		}
		res.Queries = append(res.Queries, q)
	}
	return res
}

func parseLine(line string) (model.CardQuery, error) {
	var q model.CardQuery

	rest := line
	if m := langPrefixRe.FindStringSubmatch(rest); m != nil {
		q.Language = model.Language(strings.ToUpper(m[1]))
		rest = rest[len(m[0]):]
	}

	tokens := strings.Fields(rest)
	if len(tokens) < 2 {
		return q, fmt.Errorf("need at least a card name and foil type")
	}

	// Trailing quantity is optional.
	q.Quantity = 1
	last := len(tokens) - 1
	if n, err := strconv.Atoi(tokens[last]); err == nil {
		if n < 1 {
			return q, fmt.Errorf("quantity must be positive")
		}
		q.Quantity = n
		last--
	}

	if last < 1 {
		return q, fmt.Errorf("need at least a card name and foil type")
	}

	foil := normalizeFoilToken(tokens[last])
	if !foil.Valid() {
		return q, fmt.Errorf("invalid foil type %q, use: NF, RF, CF, EARF, Marvel", tokens[last])
	}
	q.FoilType = foil
	q.CardName = strings.Join(tokens[:last], " ")

	return q, nil
}

// normalizeFoilToken canonicalizes case: NF/RF/CF/EARF are upper, Marvel
// is title case.
func normalizeFoilToken(tok string) model.FoilType {
	upper := strings.ToUpper(tok)
	if upper == "MARVEL" {
		return model.FoilMarvel
	}
	return model.FoilType(upper)
}

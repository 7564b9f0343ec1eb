// ABOUTME: In-memory CRM connector for tests
// ABOUTME: Evaluates the engine's SOQL query shapes against seeded records
package crm

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryConnector is a Connector backed by in-memory records. It understands
// the query shapes the Store generates (equality, IN, LIKE, datetime range)
// and supports error injection for failure-path tests.
type MemoryConnector struct {
	mu      sync.Mutex
	objects map[string][]Record

	// Injected failures. When set, the corresponding call returns the error.
	QueryErr  error
	CreateErr error
	UpdateErr error

	// Call counters for asserting read-before-write behavior.
	QueryCount  int
	CreateCount int
	UpdateCount int
}

// NewMemoryConnector creates an empty in-memory connector.
func NewMemoryConnector() *MemoryConnector {
	return &MemoryConnector{
		objects: make(map[string][]Record),
	}
}

// SeedAccount inserts an account record and returns its id.
func (m *MemoryConnector) SeedAccount(name, website string) string {
	id := uuid.New().String()
	m.seed(ObjectAccount, Record{
		"Id":      id,
		"Name":    name,
		"Website": website,
	})
	return id
}

// SeedContact inserts a contact record and returns its id.
func (m *MemoryConnector) SeedContact(firstName, lastName, email, title, accountID string) string {
	id := uuid.New().String()
	m.seed(ObjectContact, Record{
		"Id":        id,
		"FirstName": firstName,
		"LastName":  lastName,
		"Email":     strings.ToLower(email),
		"Title":     title,
		"AccountId": accountID,
	})
	return id
}

// SeedEvent inserts an event record and returns its id.
func (m *MemoryConnector) SeedEvent(subject string, start, end time.Time, whoID, whatID string) string {
	id := uuid.New().String()
	m.seed(ObjectEvent, Record{
		"Id":            id,
		"Subject":       subject,
		"StartDateTime": FormatDateTime(start),
		"EndDateTime":   FormatDateTime(end),
		"WhoId":         whoID,
		"WhatId":        whatID,
	})
	return id
}

// Records returns a copy of all records of the given object type.
func (m *MemoryConnector) Records(objType string) []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.objects[objType]))
	copy(out, m.objects[objType])
	return out
}

func (m *MemoryConnector) seed(objType string, r Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objType] = append(m.objects[objType], r)
}

// Query evaluates a SOQL query against the seeded records.
func (m *MemoryConnector) Query(ctx context.Context, soql string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueryCount++
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}

	q, err := parseQuery(soql)
	if err != nil {
		return nil, err
	}

	var out []Record
	for _, r := range m.objects[q.object] {
		if q.matches(r) {
			out = append(out, r)
			if q.limit > 0 && len(out) >= q.limit {
				break
			}
		}
	}
	return out, nil
}

// Create appends a record, assigning a fresh id.
func (m *MemoryConnector) Create(ctx context.Context, objType string, fields map[string]any) (SaveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCount++
	if m.CreateErr != nil {
		return SaveResult{}, m.CreateErr
	}

	r := Record{}
	for k, v := range fields {
		r[k] = v
	}
	id := uuid.New().String()
	r["Id"] = id
	m.objects[objType] = append(m.objects[objType], r)

	return SaveResult{Success: true, ID: id}, nil
}

// Update patches an existing record in place.
func (m *MemoryConnector) Update(ctx context.Context, objType, id string, fields map[string]any) (SaveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCount++
	if m.UpdateErr != nil {
		return SaveResult{}, m.UpdateErr
	}

	for _, r := range m.objects[objType] {
		if r.Str("Id") == id {
			for k, v := range fields {
				r[k] = v
			}
			return SaveResult{Success: true, ID: id}, nil
		}
	}
	return SaveResult{}, fmt.Errorf("%s %s not found", objType, id)
}

// parsedQuery is the minimal SOQL subset the Store emits.
type parsedQuery struct {
	object string
	conds  []condition
	limit  int
}

type condition struct {
	field string
	op    string // "=", ">=", "<=", "LIKE", "IN"
	value string
	list  []string
}

func parseQuery(soql string) (*parsedQuery, error) {
	rest := strings.TrimSpace(soql)
	if !strings.HasPrefix(strings.ToUpper(rest), "SELECT ") {
		return nil, fmt.Errorf("unsupported query: %s", soql)
	}

	fromIdx := strings.Index(strings.ToUpper(rest), " FROM ")
	if fromIdx < 0 {
		return nil, fmt.Errorf("query missing FROM: %s", soql)
	}
	rest = strings.TrimSpace(rest[fromIdx+len(" FROM "):])

	q := &parsedQuery{}

	if limIdx := strings.Index(strings.ToUpper(rest), " LIMIT "); limIdx >= 0 {
		n, err := strconv.Atoi(strings.TrimSpace(rest[limIdx+len(" LIMIT "):]))
		if err != nil {
			return nil, fmt.Errorf("bad LIMIT in query: %s", soql)
		}
		q.limit = n
		rest = strings.TrimSpace(rest[:limIdx])
	}

	if whereIdx := strings.Index(strings.ToUpper(rest), " WHERE "); whereIdx >= 0 {
		whereClause := strings.TrimSpace(rest[whereIdx+len(" WHERE "):])
		rest = strings.TrimSpace(rest[:whereIdx])
		for _, part := range strings.Split(whereClause, " AND ") {
			cond, err := parseCondition(strings.TrimSpace(part))
			if err != nil {
				return nil, fmt.Errorf("%w in query: %s", err, soql)
			}
			q.conds = append(q.conds, cond)
		}
	}

	q.object = rest
	return q, nil
}

func parseCondition(s string) (condition, error) {
	for _, op := range []string{" >= ", " <= ", " LIKE ", " IN ", " = "} {
		idx := strings.Index(s, op)
		if idx < 0 {
			continue
		}
		cond := condition{
			field: strings.TrimSpace(s[:idx]),
			op:    strings.TrimSpace(op),
		}
		raw := strings.TrimSpace(s[idx+len(op):])
		if cond.op == "IN" {
			raw = strings.TrimSuffix(strings.TrimPrefix(raw, "("), ")")
			for _, item := range strings.Split(raw, ",") {
				cond.list = append(cond.list, unquote(strings.TrimSpace(item)))
			}
		} else {
			cond.value = unquote(raw)
		}
		return cond, nil
	}
	return condition{}, fmt.Errorf("unsupported condition %q", s)
}

func unquote(s string) string {
	if strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") && len(s) >= 2 {
		s = s[1 : len(s)-1]
		s = strings.ReplaceAll(s, `\'`, `'`)
		s = strings.ReplaceAll(s, `\\`, `\`)
	}
	return s
}

func (q *parsedQuery) matches(r Record) bool {
	for _, c := range q.conds {
		if !c.matches(r) {
			return false
		}
	}
	return true
}

func (c condition) matches(r Record) bool {
	got := r.Str(c.field)
	switch c.op {
	case "=":
		return strings.EqualFold(got, c.value)
	case "IN":
		for _, v := range c.list {
			if strings.EqualFold(got, v) {
				return true
			}
		}
		return false
	case "LIKE":
		return likeMatch(strings.ToLower(got), strings.ToLower(c.value))
	case ">=", "<=":
		gotTime, err := time.Parse(time.RFC3339, got)
		if err != nil {
			return false
		}
		condTime, err := time.Parse(time.RFC3339, c.value)
		if err != nil {
			return false
		}
		if c.op == ">=" {
			return !gotTime.Before(condTime)
		}
		return !gotTime.After(condTime)
	}
	return false
}

// likeMatch supports leading/trailing % wildcards, which is all the Store uses.
func likeMatch(s, pattern string) bool {
	leading := strings.HasPrefix(pattern, "%")
	trailing := strings.HasSuffix(pattern, "%")
	core := strings.Trim(pattern, "%")
	switch {
	case leading && trailing:
		return strings.Contains(s, core)
	case leading:
		return strings.HasSuffix(s, core)
	case trailing:
		return strings.HasPrefix(s, core)
	default:
		return s == pattern
	}
}

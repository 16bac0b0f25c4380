package services

import (
	"fmt"
	"sync"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver" // value and param marker expressions
)

// StatementValidator re-parses generated SQL before it reaches the database.
// The statement must be exactly one SELECT whose placeholders match the bound parameters.
type StatementValidator struct {
	mu     sync.Mutex // parser.Parser is not safe for concurrent use
	parser *parser.Parser
}

// NewStatementValidator creates a new StatementValidator
func NewStatementValidator() *StatementValidator {
	return &StatementValidator{parser: parser.New()}
}

// Validate checks the statement shape and its placeholder count
func (v *StatementValidator) Validate(sql string, paramCount int) error {
	v.mu.Lock()
	stmtNodes, _, err := v.parser.Parse(sql, "", "")
	v.mu.Unlock()
	if err != nil {
		return fmt.Errorf("SQL parse error: %v", err)
	}

	if len(stmtNodes) != 1 {
		return fmt.Errorf("expected a single statement, got %d", len(stmtNodes))
	}

	stmt, ok := stmtNodes[0].(*ast.SelectStmt)
	if !ok {
		return fmt.Errorf("only SELECT statements are allowed")
	}

	counter := &paramCounter{}
	stmt.Accept(counter)
	if counter.count != paramCount {
		return fmt.Errorf("statement has %d placeholders but %d parameters are bound", counter.count, paramCount)
	}
	return nil
}

// paramCounter counts `?` markers anywhere in the statement
type paramCounter struct {
	count int
}

func (c *paramCounter) Enter(in ast.Node) (ast.Node, bool) {
	if _, ok := in.(ast.ParamMarkerExpr); ok {
		c.count++
	}
	return in, false
}

func (c *paramCounter) Leave(in ast.Node) (ast.Node, bool) {
	return in, true
}

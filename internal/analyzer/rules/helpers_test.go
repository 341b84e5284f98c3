package rules_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aqasim81/dealfinder-db/internal/analyzer"
	"github.com/aqasim81/dealfinder-db/internal/parser"
)

// check parses a single statement and runs rule against it.
func check(t *testing.T, rule analyzer.Rule, sql string, ctx *analyzer.RuleContext) []analyzer.Finding {
	t.Helper()

	result, err := parser.Parse(sql)
	require.NoError(t, err)
	require.Len(t, result.Stmts, 1)

	if ctx == nil {
		ctx = &analyzer.RuleContext{}
	}

	return rule.Check(result.Stmts[0], ctx)
}

// ruleCase is the shared table shape for rule tests.
type ruleCase struct {
	name       string
	sql        string
	nonTx      bool
	wantCount  int
	wantSev    analyzer.Severity
	wantObject string
}

func runRuleCases(t *testing.T, rule analyzer.Rule, cases []ruleCase) {
	t.Helper()

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			findings := check(t, rule, tt.sql, &analyzer.RuleContext{NonTransactional: tt.nonTx, StmtIndex: 3})
			require.Len(t, findings, tt.wantCount)

			if tt.wantCount == 0 {
				return
			}

			require.Equal(t, rule.ID(), findings[0].Rule)
			require.Equal(t, tt.wantSev, findings[0].Severity)
			require.Equal(t, tt.wantObject, findings[0].Object)
			require.Equal(t, 3, findings[0].StmtIndex)
			require.NotEmpty(t, findings[0].Message)
			require.NotEmpty(t, findings[0].Suggestion)
		})
	}
}

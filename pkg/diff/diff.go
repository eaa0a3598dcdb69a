// Package diff renders the difference between two values for test failures.
package diff

import (
	"strings"
	"testing"

	"github.com/k0kubun/pp/v3"
	"github.com/kylelemons/godebug/diff"
)

// ExportedOnly pretty prints both values without unexported fields and
// returns a line diff that turns got into want, or "" when they match.
func ExportedOnly[T any](want T, got T) string {
	printer := pp.New()
	printer.SetExportedOnly(true)
	printer.SetColoringEnabled(false)

	return Text(printer.Sprint(want), printer.Sprint(got))
}

// Text diffs two strings line by line
func Text(want, got string) string {
	d := diff.Diff(got, want)
	if d == "" {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n\nto convert ACTUAL ⏩️ EXPECTED:\n\n")
	sb.WriteString("add:    ➕\n")
	sb.WriteString("remove: ➖\n\n")
	sb.WriteString(strings.NewReplacer("\n-", "\n➖", "\n+", "\n➕").Replace("\n" + d)[1:])
	return sb.String()
}

// RequireExportedEqual fails the test with a readable diff when want and got differ
func RequireExportedEqual[T any](t testing.TB, want T, got T) {
	t.Helper()
	if d := ExportedOnly(want, got); d != "" {
		t.Fatal(d)
	}
}

/*
Package semtok classifies the leaves of a syntax tree into semantic tokens
for editor highlighting.

	syntax.Tree                                   editor
	     |                                           ^
	     v                                           |
	+-----------------+   []Token    +-----------------+
	| highlight query | -----------> | Encode (deltas) |
	+-----------------+              +-----------------+

Only leaves become tokens. ERROR leaves and MISSING nodes are skipped, but
the leaves nested inside an ERROR node are still classified.

The highlight query is generated from the grammar's symbol metadata, one
pattern per visible terminal, captured under its token type:

	anonymous, word characters only   ->  keyword   (let, if)
	anonymous, anything else          ->  operator  (+, (, =)
	named, number/integer/float       ->  number
	named, string/char                ->  string
	named, comment                    ->  comment
	named, anything else              ->  variable

A variable in a field called "name" is captured as @variable.declaration by
an earlier pattern and carries ModifierDeclaration.
*/
package semtok

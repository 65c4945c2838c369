// Package engine implements operation-field resolution.
//
// An Engine is created once per assembly run and owns every table
// resolution consults: the instruction cache, the synonym table, the
// XMODE table, the macro registry and the directive table.
//
// RECOGNITION CONTEXTS:
//
// Prototype: every operation is the macro prototype.
// Body: only body-structural macro directives are recognized; everything
// else is a model statement kept for expansion.
// Recovery: only MEND is recognized; everything else is a comment.
// Normal: the resolution cascade below.
//
// NORMAL CASCADE (first match wins):
//  1. Synonym table, when synonyms are enabled. A tombstone fails NotFound;
//     a resolved entry returns its snapshot.
//  2. Macro registry, without library load.
//  3. Instruction cache, upper-cased. Extended mnemonics get attribute E.
//  4. XMODE substitution, then the directive table.
//  5. Macro library, when synonyms and library load are both enabled.
//  6. NotFound.
//
// The engine is synchronous and not safe for concurrent use. The only
// blocking path is the library load of step 5.
package engine

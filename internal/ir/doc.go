// Package ir provides the shared types of operation-field resolution.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. Descriptors, instruction entries
// and macro information defined here are the values every resolution layer
// hands to the next one and, finally, to statement construction.
//
// Key design constraints:
//   - Kind is a closed enumeration; KindInfo is the only dispatch table
//   - Descriptor and InstructionEntry are immutable once constructed
//   - A Payload is one of *InstructionEntry, *MacroInfo, *LiteralRef or nil
package ir

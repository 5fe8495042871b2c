// Package normalizer turns heterogeneous upstream compound JSON into
// the canonical domain.Compound record.
//
// Three upstream shapes are recognised, probed in order with the first
// match winning:
//
//  1. PUG REST full-record payloads (a "PC_Compounds" collection with
//     typed property lists, optionally with a synonym list)
//  2. PUG View hierarchical reports (a "Record" tree of titled sections)
//  3. flat custom records exposing "cid" directly, in camelCase or
//     snake_case key variants
//
// Unrecognised shapes fail with domain.ErrUnrecognizedFormat; a record
// in a recognised shape without a compound identifier fails with
// domain.ErrMissingCID. Normalisation is a pure function of its input;
// file reading and top-level JSON parsing are the caller's concern.
package normalizer

// Package fuzztests houses Go fuzz harnesses that push arbitrary bytes
// through the declaration pipeline (decode, bind, merge, synthesize,
// lower) and check that it neither panics nor hangs, and that every span
// it reports stays inside the input.
package fuzztests

// Package deadline computes Brazilian procedural deadlines (prazos).
//
// Engine.Calculate runs one linear pipeline per request:
//
//  1. load the non-working calendar for the base date (calendar.Loader)
//  2. evaluate the doubling rules (prazo em dobro)
//  3. resolve the counting start date from the intimation method
//  4. count business or calendar days
//  5. extend across the forensic recess when SUSPENSAO_RECESSO is set
//  6. snap the end date to a working day (business-day mode)
//
// Every stage appends to an ordered audit log returned with the Result.
// The engine holds no mutable state: identical inputs over an unchanged
// calendar produce identical results.
package deadline

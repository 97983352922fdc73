// Package extract turns directory markup into listing entries, detail
// offices and phone numbers.
//
// All lookups go through a Selectors grammar so a site whose markup drifts
// can be followed from the configuration file. Missing elements never
// produce errors: the affected field falls back to model.NotAvailable.
package extract

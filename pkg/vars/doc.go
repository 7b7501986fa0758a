// SPDX-License-Identifier: MPL-2.0

// Package vars holds the named string variables of a build and expands
// references to them.
//
// Two reference forms are recognised:
//
//	$NAME   environment variable (NAME matches \w+)
//	~NAME~  store variable (shortest match between tildes)
//
// Environment references are replaced first and store references second.
// Values substituted from the store are not scanned again, so expansion
// terminates for any input. An unresolved reference of either kind is an
// error.
package vars

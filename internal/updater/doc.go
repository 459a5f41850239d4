// Package updater runs one update: wait for the application to let go of its
// executable, extract the update archive over the install root, and
// optionally relaunch the application. Failures are reported on the console
// and, unless disabled, held on screen until the user acknowledges them.
package updater

/*
Package errors implements custom error interfaces for strongbox.

The idea is to reuse as many errors from this package as possible and define
custom package errors when absolutely necessary. Errors are categorized by a
root error that carries a unique code. Each instance created during the
runtime should wrap one of the root errors, which allows error tests through
the Is method and returning failures to the client in a safe manner.

If an extension has to declare a custom root error, always use the Register
function to ensure error code uniqueness.
*/
package errors

/*
Package strongboxtest provides mocks and helpers for testing code built on
strongbox. All mocks follow the same pattern: configure the desired results
on the struct fields and pass the mock where the real implementation is
expected.
*/
package strongboxtest

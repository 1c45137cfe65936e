// Package clock hides time.Now behind an interface so the OTP store can be
// driven by a fake clock in tests.
package clock

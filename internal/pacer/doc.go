// Package pacer spaces outbound requests by a fixed minimum interval.
package pacer

//go:build !uartxassert

package uartx

const assertEnabled = false

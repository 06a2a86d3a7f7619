//go:build uartxassert

package uartx

const assertEnabled = true

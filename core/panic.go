package core

import "runtime/debug"

func capturePanicStack() []byte {
	return debug.Stack()
}

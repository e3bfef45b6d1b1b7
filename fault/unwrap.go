package fault

import "errors"

func as[T error](e error, target *T) bool {
	if e == nil {
		return false
	}
	return errors.As(e, target)
}

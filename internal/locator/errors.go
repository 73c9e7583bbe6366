package locator

import "github.com/pkg/errors"

var errNoBody = errors.New("record has no transaction body")

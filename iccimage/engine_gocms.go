//go:build !lcms2 || !cgo

package iccimage

import (
	"github.com/mrjoshuak/go-iccimage/cms"
	"github.com/mrjoshuak/go-iccimage/cms/gocms"
)

func defaultEngine() cms.Engine {
	return gocms.New()
}

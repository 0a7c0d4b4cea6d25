//go:build lcms2 && cgo

package iccimage

import (
	"github.com/mrjoshuak/go-iccimage/cms"
	"github.com/mrjoshuak/go-iccimage/cms/lcms2"
)

func defaultEngine() cms.Engine {
	return lcms2.New()
}

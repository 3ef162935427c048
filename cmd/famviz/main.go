package main

import (
	famsample "github.com/jgbaldwinbrown/famsample/pkg"
)

func main() {
	famsample.RunFamViz()
}

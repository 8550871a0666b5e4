package main

import (
	"go.viam.com/rdk/components/generic"
	"go.viam.com/rdk/module"
	"go.viam.com/rdk/resource"

	cartesianControl "cartesian_control"
)

func main() {
	module.ModularMain(
		resource.APIModel{API: generic.API, Model: cartesianControl.CartesianMotionModel},
	)
}

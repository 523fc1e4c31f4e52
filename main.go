package main

import "github.com/renaultste-svg/strava-miguel-dashboard/internal/cmd"

func main() {
	cmd.Execute()
}

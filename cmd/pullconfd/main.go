package main

var buildVersion = "dev"

func main() {
	SetVersion(buildVersion)
	Execute()
}

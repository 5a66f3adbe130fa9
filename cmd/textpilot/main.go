package main

func main() {
	SetupServeCmd()
	SetupRunCmd()
	SetupSettingsCmd()
	Execute()
}

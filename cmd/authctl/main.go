package main

import "github.com/igor-raits/serverless-api-react-auth-demo/cmd/authctl/cmd"

func main() {
	cmd.Execute()
}

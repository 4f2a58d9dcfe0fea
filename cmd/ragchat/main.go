package main

import "github.com/Khush-Purohit/RAG-Chatbot/internal/cli"

func main() {
	cli.Execute()
}

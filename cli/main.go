package main

import (
	"fmt"
	"os"
	"strconv"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: qmctl <command> [args]

Commands:
  health
  items [status]
  register <code> <name> <total> [category]
  loan <code> <qty> <borrower> <type> <due YYYY-MM-DD>
  return-loan <id>
  return-group <id>
  damage <code> <qty> <reason>
  repair <code> <qty> <reason>`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	client := NewApiClient()
	var err error

	switch os.Args[1] {
	case "health":
		ok, healthErr := client.CheckHealth()
		if healthErr != nil || !ok {
			err = fmt.Errorf("API is not reachable: %v", healthErr)
		} else {
			fmt.Println("API is up")
		}
	case "items":
		status := ""
		if len(os.Args) > 2 {
			status = os.Args[2]
		}
		var items []Item
		items, err = client.ListItems(status)
		if err == nil {
			fmt.Printf("%-12s %-24s %6s %6s %6s %6s  %s\n", "CODE", "NAME", "TOTAL", "AVAIL", "LOAN", "DMG", "STATUS")
			for _, item := range items {
				fmt.Printf("%-12s %-24s %6d %6d %6d %6d  %s\n",
					item.Code, item.Name, item.Total, item.Available, item.Loaned, item.Damaged, item.Status)
			}
		}
	case "register":
		if len(os.Args) < 5 {
			usage()
		}
		total, parseErr := strconv.Atoi(os.Args[4])
		if parseErr != nil {
			err = fmt.Errorf("invalid total: %v", parseErr)
			break
		}
		item := Item{Code: os.Args[2], Name: os.Args[3], Total: total}
		if len(os.Args) > 5 {
			item.Category = os.Args[5]
		}
		var created *Item
		created, err = client.RegisterItem(item)
		if err == nil {
			fmt.Printf("Registered %s with %d units\n", created.Code, created.Total)
		}
	case "loan":
		if len(os.Args) < 7 {
			usage()
		}
		qty, parseErr := strconv.Atoi(os.Args[3])
		if parseErr != nil {
			err = fmt.Errorf("invalid quantity: %v", parseErr)
			break
		}
		err = client.CreateLoan(os.Args[2], qty, os.Args[4], os.Args[5], os.Args[6])
		if err == nil {
			fmt.Println("Loan created")
		}
	case "return-loan":
		if len(os.Args) < 3 {
			usage()
		}
		err = client.ReturnLoan(os.Args[2])
		if err == nil {
			fmt.Println("Loan returned")
		}
	case "return-group":
		if len(os.Args) < 3 {
			usage()
		}
		err = client.ReturnGroup(os.Args[2])
		if err == nil {
			fmt.Println("Loan group returned")
		}
	case "damage":
		if len(os.Args) < 5 {
			usage()
		}
		qty, parseErr := strconv.Atoi(os.Args[3])
		if parseErr != nil {
			err = fmt.Errorf("invalid quantity: %v", parseErr)
			break
		}
		var item *Item
		item, err = client.MarkDamaged(os.Args[2], qty, os.Args[4])
		if err == nil {
			fmt.Printf("%s: %d available, %d damaged\n", item.Code, item.Available, item.Damaged)
		}
	case "repair":
		if len(os.Args) < 5 {
			usage()
		}
		qty, parseErr := strconv.Atoi(os.Args[3])
		if parseErr != nil {
			err = fmt.Errorf("invalid quantity: %v", parseErr)
			break
		}
		var item *Item
		item, err = client.MarkRepaired(os.Args[2], qty, os.Args[4])
		if err == nil {
			fmt.Printf("%s: %d available, %d damaged\n", item.Code, item.Available, item.Damaged)
		}
	default:
		usage()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

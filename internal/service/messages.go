package service

import "fmt"

// Audit detail texts.

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func createTicketSuccess(ticketID, title string) string {
	return fmt.Sprintf("Ticket '%s' (ID: %s...) was created.", title, shortID(ticketID))
}

func createTicketError(err error, title string) string {
	if title == "" {
		title = "N/A"
	}
	return fmt.Sprintf("Error creating ticket '%s'. Exception: %v", title, err)
}

func ticketAlreadyExists(title string) string {
	return fmt.Sprintf("Ticket with title '%s' already exists.", title)
}

func deleteTicketSuccess(ticketID, title string) string {
	return fmt.Sprintf("Ticket '%s' (ID: %s...) was deleted.", title, shortID(ticketID))
}

func deleteTicketNotFound(ticketID string) string {
	return fmt.Sprintf("Ticket with ID %s was not found for deletion.", ticketID)
}

func deleteTicketError(err error, ticketID string) string {
	return fmt.Sprintf("Error deleting ticket %s. Exception: %v", ticketID, err)
}

func ticketNotFound(ticketID string) string {
	return fmt.Sprintf("Ticket with ID %s was not found.", ticketID)
}

func getTicketError(err error, ticketID string) string {
	return fmt.Sprintf("Error retrieving ticket %s. Exception: %v", ticketID, err)
}

func getAllTicketsError(err error) string {
	return fmt.Sprintf("Error retrieving all tickets. Exception: %v", err)
}

func getLogsError(err error) string {
	return fmt.Sprintf("Error retrieving logs. Exception: %v", err)
}

func registerSuccess(username string) string {
	return fmt.Sprintf("User %s created successfully", username)
}

func registerAlreadyExists(username string) string {
	return fmt.Sprintf("User %s already exists", username)
}

func registerError(err error, username string) string {
	return fmt.Sprintf("Error creating user %s: %v", username, err)
}

func loginSuccess(username string) string {
	return fmt.Sprintf("User '%s' logged in.", username)
}

func loginInvalidCredentials(username string) string {
	return fmt.Sprintf("Invalid credentials for user '%s'", username)
}

func loginError(err error, username string) string {
	return fmt.Sprintf("Error during login for user %s: %v", username, err)
}

func logoutSuccess(username string) string {
	return fmt.Sprintf("User '%s' logged out.", username)
}

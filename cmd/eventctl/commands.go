package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/event-tracker/eventclient/internal/auth"
	"github.com/event-tracker/eventclient/internal/organizers"
)

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		if len(args) != 3 {
			return fmt.Errorf("usage: register <name> <email> <password>")
		}
		if err := a.auth.Register(ctx, args[0], args[1], args[2]); err != nil {
			return err
		}
		fmt.Println("registered and logged in as", a.auth.User().Email)
		return nil

	case "login":
		if len(args) != 2 {
			return fmt.Errorf("usage: login <email> <password>")
		}
		if err := a.auth.Login(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Println("logged in as", a.auth.User().Email)
		return nil

	case "logout":
		a.auth.Logout(ctx)
		fmt.Println("logged out")
		return nil

	case "whoami":
		user := a.auth.User()
		if user == nil {
			fmt.Println("not logged in")
			return nil
		}
		fmt.Printf("%s <%s> (id %d)\n", user.Name, user.Email, user.ID)
		if err := a.organizers.FetchMyProfile(ctx); err == nil && a.organizers.IsOrganizer() {
			fmt.Printf("organizer profile id %d\n", a.organizers.Profile().ID)
		}
		return nil

	case "update-name":
		if len(args) != 1 {
			return fmt.Errorf("usage: update-name <name>")
		}
		if err := a.auth.UpdateAccount(ctx, auth.AccountUpdate{Name: args[0]}); err != nil {
			return err
		}
		fmt.Println("account updated")
		return nil

	case "events":
		if err := a.events.FetchAll(ctx); err != nil {
			return err
		}
		for _, e := range a.events.Feed() {
			fmt.Printf("%d\t%s\t%s\t%s\n", e.ID, e.Title, e.Category, e.StartingDateAndTime)
		}
		return nil

	case "comments":
		if len(args) != 1 {
			return fmt.Errorf("usage: comments <eventId>")
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := a.events.FetchComments(ctx, id); err != nil {
			return err
		}
		comments, _ := a.events.Comments()
		for _, cm := range comments {
			name := "?"
			if cm.User != nil {
				name = cm.User.Name
			}
			fmt.Printf("%s: %s\n", name, cm.Comment)
		}
		return nil

	case "comment":
		if len(args) < 2 {
			return fmt.Errorf("usage: comment <eventId> <text...>")
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := a.events.AddComment(ctx, id, strings.Join(args[1:], " ")); err != nil {
			return err
		}
		fmt.Println("comment posted")
		return nil

	case "org-register":
		if len(args) != 3 {
			return fmt.Errorf("usage: org-register <phone> <description> <website>")
		}
		if err := a.organizers.Register(ctx, args[0], args[1], args[2]); err != nil {
			return err
		}
		fmt.Printf("registered as organizer, profile id %d\n", a.organizers.Profile().ID)
		return nil

	case "organizers":
		if err := a.organizers.FetchDirectory(ctx); err != nil {
			return err
		}
		for _, entry := range a.organizers.Directory() {
			name := entry.Email
			if entry.User != nil {
				name = entry.User.Name
			}
			fmt.Printf("%d\t%s\t%s\n", entry.ID, name, entry.URL)
		}
		return nil

	case "my-events":
		if err := a.organizers.FetchMyProfile(ctx); err != nil {
			return err
		}
		if err := a.organizers.FetchMyEvents(ctx); err != nil {
			return err
		}
		for _, e := range a.organizers.MyEvents() {
			fmt.Printf("%d\t%s\t%s\n", e.ID, e.Title, e.Category)
		}
		return nil

	case "create-event":
		if len(args) != 6 {
			return fmt.Errorf("usage: create-event <title> <location> <category> <start> <end> <imagePath>")
		}
		img, err := os.Open(args[5])
		if err != nil {
			return fmt.Errorf("open image: %w", err)
		}
		defer img.Close()
		draft := organizers.EventDraft{
			Title:               args[0],
			Location:            args[1],
			Category:            args[2],
			StartingDateAndTime: args[3],
			EndingDateAndTime:   args[4],
			ImageName:           filepath.Base(args[5]),
			Image:               img,
		}
		if err := a.organizers.CreateEvent(ctx, draft); err != nil {
			return err
		}
		fmt.Println("event created")
		return nil

	case "delete-event":
		if len(args) != 1 {
			return fmt.Errorf("usage: delete-event <eventId>")
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := a.organizers.DeleteEvent(ctx, id); err != nil {
			return err
		}
		fmt.Println("event deleted")
		return nil

	case "followers":
		if err := a.followers.FetchFollowers(ctx); err != nil {
			return err
		}
		list, total := a.followers.Followers()
		fmt.Printf("%d followers\n", total)
		for _, f := range list {
			fmt.Printf("%d\t%s\t%s\n", f.ID, f.Name, f.Email)
		}
		return nil

	case "following":
		if err := a.followers.FetchFollowing(ctx); err != nil {
			return err
		}
		list, total := a.followers.Following()
		fmt.Printf("following %d organizers\n", total)
		for _, f := range list {
			name := "?"
			if f.User != nil {
				name = f.User.Name
			}
			fmt.Printf("%d\t%s\n", f.ID, name)
		}
		return nil

	case "follow":
		if len(args) != 1 {
			return fmt.Errorf("usage: follow <organizerId>")
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := a.followers.FollowToggle(ctx, id); err != nil {
			return err
		}
		if a.followers.IsFollowing(id) {
			fmt.Println("now following", id)
		} else {
			fmt.Println("unfollowed", id)
		}
		return nil

	default:
		fmt.Fprintln(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

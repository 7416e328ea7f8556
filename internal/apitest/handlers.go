package apitest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/event-tracker/eventclient/internal/models"
	"github.com/event-tracker/eventclient/pkg/response"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	s.mu.Lock()
	if s.userByEmail(req.Email) != nil {
		s.mu.Unlock()
		response.BadRequest(c, "email already registered")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		s.mu.Unlock()
		response.Internal(c, "failed to hash password")
		return
	}
	u := models.User{ID: s.id(), Name: req.Name, Email: req.Email}
	s.users[u.ID] = &userRecord{user: u, passwordHash: string(hash)}
	s.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    u,
		"token":   s.issueToken(u.ID, u.Email),
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	s.mu.Lock()
	rec := s.userByEmail(req.Email)
	s.mu.Unlock()
	if rec == nil || bcrypt.CompareHashAndPassword([]byte(rec.passwordHash), []byte(req.Password)) != nil {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rec.user,
		"token":   s.issueToken(rec.user.ID, rec.user.Email),
	})
}

func (s *Server) logout(c *gin.Context) {
	if c.GetInt64("user_id") != pathID(c, "userId") {
		response.Forbidden(c, "token does not match user")
		return
	}
	response.OK(c, gin.H{"message": "logged out"})
}

func (s *Server) updateAccount(c *gin.Context) {
	userID := pathID(c, "userId")
	if c.GetInt64("user_id") != userID {
		response.Forbidden(c, "token does not match user")
		return
	}

	s.mu.Lock()
	rec, ok := s.users[userID]
	if !ok {
		s.mu.Unlock()
		response.NotFound(c, "user not found")
		return
	}

	var name, email, password, profileImg string
	if c.ContentType() == "application/json" {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			s.mu.Unlock()
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
		name, email, password = body["name"], body["email"], body["password"]
	} else {
		name = c.PostForm("name")
		email = c.PostForm("email")
		password = c.PostForm("password")
		if file, err := c.FormFile("profile_img"); err == nil {
			profileImg = "/uploads/" + file.Filename
		}
	}

	if name != "" {
		rec.user.Name = name
	}
	if email != "" {
		rec.user.Email = email
	}
	if password != "" {
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		rec.passwordHash = string(hash)
	}
	if profileImg != "" {
		rec.user.ProfileImg = profileImg
	}
	u := rec.user
	s.mu.Unlock()

	// Account changes reissue the token, like the real backend.
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    u,
		"token":   s.issueToken(u.ID, u.Email),
	})
}

func (s *Server) allEvents(c *gin.Context) {
	s.mu.Lock()
	list := make([]models.Event, 0, len(s.events))
	for _, e := range s.events {
		ev := *e
		if p, ok := s.organizers[e.OrganizerID]; ok {
			ev.Organizer = p
		}
		list = append(list, ev)
	}
	s.mu.Unlock()
	response.OK(c, list)
}

func (s *Server) eventWithComments(c *gin.Context) {
	eventID := pathID(c, "eventId")
	s.mu.Lock()
	e, ok := s.events[eventID]
	if !ok {
		s.mu.Unlock()
		response.NotFound(c, "event not found")
		return
	}
	payload := gin.H{
		"id":       e.ID,
		"title":    e.Title,
		"category": e.Category,
		"is_free":  e.IsFree,
		"comments": append([]models.Comment{}, s.comments[eventID]...),
	}
	s.mu.Unlock()
	response.OK(c, payload)
}

type addCommentRequest struct {
	Comment string `json:"comment" binding:"required"`
}

func (s *Server) addComment(c *gin.Context) {
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	eventID := pathID(c, "eventId")

	s.mu.Lock()
	if _, ok := s.events[eventID]; !ok {
		s.mu.Unlock()
		response.NotFound(c, "event not found")
		return
	}
	rec := s.users[c.GetInt64("user_id")]
	user := rec.user
	comment := models.Comment{
		ID:        s.id(),
		Comment:   req.Comment,
		User:      &user,
		CreatedAt: time.Now().UTC(),
	}
	s.comments[eventID] = append(s.comments[eventID], comment)
	s.mu.Unlock()

	response.Created(c, comment)
}

type regAsOrganizerRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Email       string `json:"email" binding:"required,email"`
}

func (s *Server) regAsOrganizer(c *gin.Context) {
	userID := pathID(c, "userId")
	if c.GetInt64("user_id") != userID {
		response.Forbidden(c, "token does not match user")
		return
	}
	var req regAsOrganizerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	s.mu.Lock()
	if s.organizerByUser(userID) != nil {
		s.mu.Unlock()
		response.Conflict(c, "already an organizer")
		return
	}
	now := time.Now().UTC()
	p := models.OrganizerProfile{
		ID:          s.id(),
		UserID:      userID,
		PhoneNumber: req.PhoneNumber,
		Description: req.Description,
		URL:         req.URL,
		Email:       req.Email,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.organizers[p.ID] = &p
	s.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{"success": true, "created": p})
}

func (s *Server) meAsAnOrg(c *gin.Context) {
	s.mu.Lock()
	p := s.organizerByEmail(c.Param("email"))
	s.mu.Unlock()
	if p == nil {
		response.NotFound(c, "not an organizer")
		return
	}
	response.OK(c, p)
}

func (s *Server) organizerDirectory(c *gin.Context) {
	userID := pathID(c, "userId")
	s.mu.Lock()
	list := make([]models.OrganizerDirectoryEntry, 0, len(s.organizers))
	for _, p := range s.organizers {
		if p.UserID == userID {
			continue // never list the requester's own profile
		}
		entry := models.OrganizerDirectoryEntry{OrganizerProfile: *p}
		if rec, ok := s.users[p.UserID]; ok {
			u := rec.user
			entry.User = &u
		}
		list = append(list, entry)
	}
	s.mu.Unlock()
	response.OK(c, list)
}

func (s *Server) addEvent(c *gin.Context) {
	userID := pathID(c, "userId")
	if c.GetInt64("user_id") != userID {
		response.Forbidden(c, "token does not match user")
		return
	}

	s.mu.Lock()
	p := s.organizerByUser(userID)
	if p == nil {
		s.mu.Unlock()
		response.Forbidden(c, "user is not an organizer")
		return
	}

	isFree := 0
	if c.PostForm("is_free") == "1" {
		isFree = 1
	}
	image := ""
	if file, err := c.FormFile("image"); err == nil {
		image = "/uploads/" + file.Filename
	}
	e := models.Event{
		ID:                  s.id(),
		Title:               c.PostForm("title"),
		Location:            c.PostForm("location"),
		Description:         c.PostForm("description"),
		StartingDateAndTime: c.PostForm("starting_date_and_time"),
		EndingDateAndTime:   c.PostForm("ending_date_and_time"),
		URL:                 c.PostForm("url"),
		TicketPrice:         c.PostForm("ticket_price"),
		IsFree:              isFree,
		Image:               image,
		Category:            c.PostForm("category"),
		OrganizerID:         p.ID,
	}
	if e.Title == "" {
		s.mu.Unlock()
		response.BadRequest(c, "title is required")
		return
	}
	s.events[e.ID] = &e
	s.mu.Unlock()

	response.Created(c, e)
}

func (s *Server) myEvents(c *gin.Context) {
	organizerID := pathID(c, "organizerId")
	s.mu.Lock()
	list := make([]models.Event, 0)
	for _, e := range s.events {
		if e.OrganizerID == organizerID {
			list = append(list, *e)
		}
	}
	s.mu.Unlock()
	response.OK(c, list)
}

func (s *Server) deleteEvent(c *gin.Context) {
	eventID := pathID(c, "eventId")
	s.mu.Lock()
	e, ok := s.events[eventID]
	if !ok {
		s.mu.Unlock()
		response.NotFound(c, "event not found")
		return
	}
	owner := s.organizerByUser(c.GetInt64("user_id"))
	if owner == nil || owner.ID != e.OrganizerID {
		s.mu.Unlock()
		response.Forbidden(c, "not your event")
		return
	}
	delete(s.events, eventID)
	delete(s.comments, eventID)
	s.mu.Unlock()
	response.OK(c, gin.H{"message": "event deleted"})
}

func (s *Server) myFollowers(c *gin.Context) {
	s.mu.Lock()
	p := s.organizerByEmail(c.Param("email"))
	if p == nil {
		s.mu.Unlock()
		response.NotFound(c, "not an organizer")
		return
	}
	followers := make([]models.Follower, 0)
	for edge, created := range s.follows {
		if edge[1] != p.ID {
			continue
		}
		rec, ok := s.users[edge[0]]
		if !ok {
			continue
		}
		followers = append(followers, models.Follower{
			ID:        rec.user.ID,
			Name:      rec.user.Name,
			Email:     rec.user.Email,
			CreatedAt: created,
			Pivot:     &models.FollowPivot{UserID: edge[0], OrganizerID: edge[1]},
		})
	}
	s.mu.Unlock()

	response.Extra(c, gin.H{
		"total_followers": len(followers),
		"followers":       followers,
	})
}

func (s *Server) myFollowed(c *gin.Context) {
	userID := pathID(c, "userId")
	s.mu.Lock()
	followed := make([]models.FollowedOrganizer, 0)
	for edge := range s.follows {
		if edge[0] != userID {
			continue
		}
		p, ok := s.organizers[edge[1]]
		if !ok {
			continue
		}
		entry := models.FollowedOrganizer{
			ID:    p.ID,
			Pivot: &models.FollowPivot{UserID: edge[0], OrganizerID: edge[1]},
		}
		if rec, ok := s.users[p.UserID]; ok {
			u := rec.user
			entry.User = &u
		}
		followed = append(followed, entry)
	}
	s.mu.Unlock()

	response.Extra(c, gin.H{
		"followed":            len(followed),
		"followed_organizers": followed,
	})
}

type followRequest struct {
	OrganizerID int64 `json:"organizer_id" binding:"required"`
}

func (s *Server) follow(c *gin.Context) {
	userID := pathID(c, "userId")
	if c.GetInt64("user_id") != userID {
		response.Forbidden(c, "token does not match user")
		return
	}
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	s.mu.Lock()
	if _, ok := s.organizers[req.OrganizerID]; !ok {
		s.mu.Unlock()
		response.NotFound(c, "organizer not found")
		return
	}
	edge := [2]int64{userID, req.OrganizerID}
	var msg string
	if _, ok := s.follows[edge]; ok {
		delete(s.follows, edge)
		msg = "unfollowed"
	} else {
		s.follows[edge] = time.Now().UTC()
		msg = "followed"
	}
	s.mu.Unlock()

	response.OK(c, gin.H{"message": msg})
}

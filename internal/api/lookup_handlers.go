package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rockflint-backend/internal/services"
)

type lookupCreation struct {
	Name string  `json:"name" binding:"required"`
	Icon *string `json:"icon,omitempty"`
}

type lgaCreation struct {
	Name    string `json:"name" binding:"required"`
	StateID string `json:"stateId" binding:"required"`
}

// GetCategories lists all listing categories
func GetCategories(c *gin.Context) {
	db, ok := getDB(c)
	if !ok {
		return
	}

	categories, err := services.NewLookupService(db).Categories()
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": categories})
}

// CreateCategory adds a listing category, staff only
func CreateCategory(c *gin.Context) {
	identity, ok := requireViewer(c)
	if !ok {
		return
	}

	var req lookupCreation
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request data: " + err.Error(),
		})
		return
	}

	db, ok := getDB(c)
	if !ok {
		return
	}

	category, err := services.NewLookupService(db).CreateCategory(req.Name, identity)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": category})
}

// GetOffers lists all offer types
func GetOffers(c *gin.Context) {
	db, ok := getDB(c)
	if !ok {
		return
	}

	offers, err := services.NewLookupService(db).Offers()
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": offers})
}

// CreateOffer adds an offer type, staff only
func CreateOffer(c *gin.Context) {
	identity, ok := requireViewer(c)
	if !ok {
		return
	}

	var req lookupCreation
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request data: " + err.Error(),
		})
		return
	}

	db, ok := getDB(c)
	if !ok {
		return
	}

	offer, err := services.NewLookupService(db).CreateOffer(req.Name, identity)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": offer})
}

// GetStates lists all states with their local government areas nested
func GetStates(c *gin.Context) {
	db, ok := getDB(c)
	if !ok {
		return
	}

	states, err := services.NewLookupService(db).States()
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": states})
}

// CreateState adds a state, staff only
func CreateState(c *gin.Context) {
	identity, ok := requireViewer(c)
	if !ok {
		return
	}

	var req lookupCreation
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request data: " + err.Error(),
		})
		return
	}

	db, ok := getDB(c)
	if !ok {
		return
	}

	state, err := services.NewLookupService(db).CreateState(req.Name, identity)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": state})
}

// CreateLGA adds a local government area under a state, staff only
func CreateLGA(c *gin.Context) {
	identity, ok := requireViewer(c)
	if !ok {
		return
	}

	var req lgaCreation
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request data: " + err.Error(),
		})
		return
	}

	db, ok := getDB(c)
	if !ok {
		return
	}

	lga, err := services.NewLookupService(db).CreateLGA(req.StateID, req.Name, identity)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": lga})
}

// GetFeatures lists all listing features
func GetFeatures(c *gin.Context) {
	db, ok := getDB(c)
	if !ok {
		return
	}

	features, err := services.NewLookupService(db).Features()
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": features})
}

// CreateFeature adds a listing feature, staff only
func CreateFeature(c *gin.Context) {
	identity, ok := requireViewer(c)
	if !ok {
		return
	}

	var req lookupCreation
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request data: " + err.Error(),
		})
		return
	}

	db, ok := getDB(c)
	if !ok {
		return
	}

	feature, err := services.NewLookupService(db).CreateFeature(req.Name, req.Icon, identity)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": feature})
}

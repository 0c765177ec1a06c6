package controllers

import (
	"encoding/base64"
	"math/rand"
	"strconv"

	"github.com/Haoran-716/MallSphere/config"
	"github.com/Haoran-716/MallSphere/models"
	"github.com/Haoran-716/MallSphere/utils"
	"github.com/gin-gonic/gin"
)

func productJSON(p *models.Product) gin.H {
	var image string
	if len(p.Image) > 0 {
		image = base64.StdEncoding.EncodeToString(p.Image)
	}
	return gin.H{
		"id":             p.ID,
		"name":           p.Name,
		"price":          p.Price,
		"discount":       p.Discount,
		"detail":         p.Detail,
		"features":       p.Features,
		"comment":        p.Comment,
		"belong":         p.Belong,
		"purchase_count": p.PurchaseCount,
		"created_at":     p.CreatedAt,
		"pngBase64":      image,
	}
}

// ListProducts returns a random selection of up to 50 products.
func ListProducts(c *gin.Context) {
	var ids []uint
	if err := config.DB.Model(&models.Product{}).Pluck("id", &ids).Error; err != nil {
		utils.LogError("Failed to list product ids: %v", err)
		utils.InternalServerError(c, "Failed to list products", err.Error())
		return
	}
	if len(ids) == 0 {
		utils.Success(c, "Products retrieved successfully", []gin.H{})
		return
	}

	rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	if len(ids) > 50 {
		ids = ids[:50]
	}

	var products []models.Product
	if err := config.DB.Where("id IN ?", ids).Find(&products).Error; err != nil {
		utils.LogError("Failed to load products: %v", err)
		utils.InternalServerError(c, "Failed to list products", err.Error())
		return
	}

	out := make([]gin.H, 0, len(products))
	for i := range products {
		out = append(out, productJSON(&products[i]))
	}
	utils.Success(c, "Products retrieved successfully", out)
}

// GetProduct returns one product by id.
func GetProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid product id", nil)
		return
	}

	var product models.Product
	if err := config.DB.First(&product, id).Error; err != nil {
		utils.NotFound(c, "Product not found")
		return
	}
	utils.Success(c, "Product retrieved successfully", productJSON(&product))
}

// GetProductByName returns the closest name match, exact matches first.
func GetProductByName(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		utils.BadRequest(c, "Missing product name", nil)
		return
	}

	// Exact match wins over a fuzzy one.
	var product models.Product
	if err := config.DB.Where("name = ?", name).First(&product).Error; err != nil {
		if err := config.DB.Where("name LIKE ?", "%"+name+"%").First(&product).Error; err != nil {
			utils.NotFound(c, "Product not found")
			return
		}
	}
	utils.Success(c, "Product retrieved successfully", productJSON(&product))
}

// GetProductImage returns just the product image as base64.
func GetProductImage(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid product id", nil)
		return
	}

	var product models.Product
	if err := config.DB.Select("id", "image").First(&product, id).Error; err != nil {
		utils.NotFound(c, "Product not found")
		return
	}

	var image string
	if len(product.Image) > 0 {
		image = base64.StdEncoding.EncodeToString(product.Image)
	}
	utils.Success(c, "Product image retrieved successfully", gin.H{
		"id":        product.ID,
		"pngBase64": image,
	})
}

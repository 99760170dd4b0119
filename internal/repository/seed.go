package repository

import "blogapi/internal/domain"

// SeedUsers returns the users every fresh process starts with.
func SeedUsers() []*domain.User {
	return []*domain.User{
		{ID: 1, Name: "Thiago", Email: "flamengodecoracao@gmail.com", Password: "flamengo123", Age: 30, Role: domain.UserRoleAdmin},
		{ID: 2, Name: "Gabriel Costa", Email: "mgm@gmail.com", Password: "paulaodasolda123", Age: 22, Role: domain.UserRoleUser},
		{ID: 3, Name: "Maria Vitoria", Email: "mavi@gmail.com", Password: "euaindaamominhaex", Age: 19, Role: domain.UserRoleUser},
	}
}

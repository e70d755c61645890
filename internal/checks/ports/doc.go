// Package ports declares the collaborators the checks service depends on.
package ports

//go:generate mockgen -source=ai.go -destination=mocks/ai.go -package=mocks AIAnalyzer
//go:generate mockgen -source=activity.go -destination=mocks/activity.go -package=mocks ActivityPort
//go:generate mockgen -source=cache.go -destination=mocks/cache.go -package=mocks ResultCache

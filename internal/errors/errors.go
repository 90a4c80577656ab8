package errorz

import "errors"

var ErrErrorWhileStartingOTel = errors.New("error while starting OTel")
var ErrConfigNotFound = errors.New("config not found")
var ErrServerError = errors.New("server error")
var ErrDatabaseError = errors.New("database error")

var ErrMapNotFound = errors.New("map not found")
var ErrNoActiveMap = errors.New("no active map found")
var ErrBuildingNotFound = errors.New("building not found")
var ErrFacultyNotFound = errors.New("faculty member not found")

var ErrImageStoreFailed = errors.New("the image failed to upload")
var ErrUnsupportedImageType = errors.New("unsupported image type")
var ErrImageTooLarge = errors.New("image exceeds the configured size limit")

var ErrInvalidCredentials = errors.New("invalid email or password")
var ErrUnauthenticated = errors.New("unauthenticated")
var ErrTokenExpired = errors.New("token expired")

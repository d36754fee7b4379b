package common

// AuthorizationHeader carries "Bearer <access token>" on authenticated
// REST requests.
const AuthorizationHeader = "Authorization"

// BearerPrefix precedes the access token in AuthorizationHeader.
const BearerPrefix = "Bearer "

// UploadFieldName is the multipart form field holding an uploaded PDF.
const UploadFieldName = "pdf"

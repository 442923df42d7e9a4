package firestore

var CreateError = createError

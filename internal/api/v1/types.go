package v1

// Event type tags. The store is generic over types; these are the ones kinlog itself
// reads or writes.
const (
	// Clone events: a duplicate entity created to grant another family access.
	TypePersonClonedForSharing = "PersonClonedForSharing"
	TypePhotoClonedForSharing  = "PhotoClonedForSharing"
	TypeThreadClonedForSharing = "ThreadClonedForSharing"

	// Person references.
	TypeUserRecognizedPersonInPhoto          = "UserRecognizedPersonInPhoto"
	TypeUserCreatedNewRelationship           = "UserCreatedNewRelationship"
	TypeUserCreatedRelationshipWithNewPerson = "UserCreatedRelationshipWithNewPerson"
	TypePersonNamed                          = "PersonNamed"

	// Photo facts.
	TypeUserUploadedPhoto                 = "UserUploadedPhoto"
	TypeUserUploadedPhotoToChat           = "UserUploadedPhotoToChat"
	TypeUserInsertedPhotoInRichTextThread = "UserInsertedPhotoInRichTextThread"
	TypeUserAddedCaptionToPhoto           = "UserAddedCaptionToPhoto"
	TypeUserSetPhotoLocation              = "UserSetPhotoLocation"
	TypeUserSetPhotoDate                  = "UserSetPhotoDate"

	// Threads.
	TypeUserCreatedThread           = "UserCreatedThread"
	TypeUserUpdatedThreadAsRichText = "UserUpdatedThreadAsRichText"

	// Compensating events emitted by backfills.
	TypePersonAutoSharedWithPhotoFace    = "PersonAutoSharedWithPhotoFace"
	TypePersonAutoSharedWithRelationship = "PersonAutoSharedWithRelationship"
	TypePhotoAutoSharedWithThread        = "PhotoAutoSharedWithThread"
	TypeThreadAutoSharedWithFamily       = "ThreadAutoSharedWithFamily"

	// Migration markers.
	TypeMigrationStart   = "MigrationStart"
	TypeMigrationSuccess = "MigrationSuccess"
	TypeMigrationFailure = "MigrationFailure"

	// TypeSystemBootstrapped is the fixed seed event appended to an empty store.
	TypeSystemBootstrapped = "SystemBootstrapped"
)

// PhotoEventTypes lists the photo-related event types that carry a top-level photoId.
var PhotoEventTypes = []string{
	TypeUserUploadedPhoto,
	TypeUserUploadedPhotoToChat,
	TypeUserInsertedPhotoInRichTextThread,
	TypeUserAddedCaptionToPhoto,
	TypeUserSetPhotoLocation,
	TypeUserSetPhotoDate,
	TypeUserRecognizedPersonInPhoto,
}

// RelationshipEventTypes are the events that create a relationship between persons.
var RelationshipEventTypes = []string{
	TypeUserCreatedNewRelationship,
	TypeUserCreatedRelationshipWithNewPerson,
}

package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"warbler/auth"
	"warbler/crud"
	"warbler/domain"
	"warbler/errs"
)

// registerImageRoutes is a helper for registering all image routes.
func (s *Server) registerImageRoutes(r *mux.Router) {
	// Upload the logged in user's profile image.
	r.HandleFunc("/users/profile/image", s.handleUploadProfileImage).Methods("POST")

	// Serve stored images from wherever the image store keeps them.
	fs := http.StripPrefix(crud.ImagesURLPrefix, http.FileServer(http.Dir(s.is.BaseDir())))
	r.PathPrefix(crud.ImagesURLPrefix).Handler(serveFiles(fs)).Methods("GET")
}

// serveFiles drops the json content type so the file server can set the real one.
func serveFiles(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Del("Content-Type")
		next.ServeHTTP(w, r)
	})
}

// handleUploadProfileImage handles the route "POST /users/profile/image".
// It reads an uploaded image from the form field "image", stores it on disk and
// points the user's ImageURL to it. On success, it deletes the user's previous
// images from disk and returns the updated user.
func (s *Server) handleUploadProfileImage(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.UpdateProfile, currentUserID(r)) {
		return
	}
	user := auth.GetUser(r.Context())

	// Parse the data to be uploaded.
	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(domain.MaxUploadSize); err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid upload, images must not exceed 5MB."))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "No image uploaded."))
		return
	}
	defer file.Close()

	img := &domain.Image{
		OwnerType: domain.OwnerTypeUser,
		OwnerID:   user.ID,
		File:      file,
		Filename:  header.Filename,
	}
	// Save the image to disk (includes validation / normalization).
	if err := s.is.Create(img); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	updated := *user
	updated.ImageURL = img.URL
	if err := s.us.Update(r.Context(), &updated); err != nil {
		_ = s.is.Delete(img)
		errs.ReturnError(w, r, err)
		return
	}

	// Delete any old images of the user.
	images, err := s.is.ByOwner(domain.OwnerTypeUser, user.ID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	for i := range images {
		if images[i].Filename == img.Filename {
			continue
		}
		if err := s.is.Delete(&images[i]); err != nil {
			errs.LogError(r, err)
		}
	}

	writeJSON(w, r, http.StatusOK, newAccountResponse(&updated))
}
